// Package polyline implements the Encoded Polyline Algorithm Format used by
// Google Maps and most routing engines.
//
// Each coordinate is quantized to a fixed number of decimal digits, stored as
// a delta from the previous coordinate, zigzag folded and written as 5-bit
// chunks offset by 63 so that every byte is printable ASCII.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import "math"

const (
	// DefaultPrecision is the Google Maps standard of 5 decimal digits.
	DefaultPrecision = 5
	// MaxPrecision is the largest precision whose degree range fits 32 bits.
	MaxPrecision = 7

	minByte         = 63
	maxByte         = 126
	chunkBits       = 5
	chunkMask       = 0x1f
	continuationBit = 0x20
	// a 32-bit zigzag value never needs more than 7 chunks
	maxChunks = 7
)

var powers = [MaxPrecision + 1]float64{1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Codec encodes and decodes polylines at a fixed precision.
// The zero value is not usable; use NewCodec or Default.
type Codec struct {
	precision int
	factor    float64
}

// Default is the codec for precision 5.
var Default = Codec{precision: DefaultPrecision, factor: powers[DefaultPrecision]}

// NewCodec returns a codec for the given number of decimal digits (1..7).
// GraphHopper and OSRM "polyline6" use 6.
func NewCodec(precision int) (Codec, error) {
	if precision < 1 || precision > MaxPrecision {
		return Codec{}, ErrPrecision
	}
	return Codec{precision: precision, factor: powers[precision]}, nil
}

// Precision returns the number of decimal digits kept by the codec.
func (c Codec) Precision() int { return c.precision }

// Decode decodes a precision 5 polyline.
func Decode(encoded string) ([]Coordinate, error) {
	return Default.Decode(encoded)
}

// Encode encodes coordinates as a precision 5 polyline.
func Encode(coords []Coordinate) (string, error) {
	return Default.Encode(coords)
}

// Decode converts an encoded polyline into coordinates. An empty string
// yields an empty, non-nil slice. On error no coordinates are returned.
func (c Codec) Decode(encoded string) ([]Coordinate, error) {
	coords := make([]Coordinate, 0, len(encoded)/4)
	var lat, lng int64

	cursor := 0
	for cursor < len(encoded) {
		dlat, next, err := decodeValue(encoded, cursor)
		if err != nil {
			return nil, err
		}
		// a missing longitude surfaces as ErrTruncated here
		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		cursor = next

		lat += dlat
		lng += dlng
		coords = append(coords, Coordinate{
			Lat: float64(lat) / c.factor,
			Lng: float64(lng) / c.factor,
		})
	}

	return coords, nil
}

// decodeValue reads one zigzag-encoded value starting at cursor and returns
// it together with the offset of the next unread byte.
func decodeValue(encoded string, cursor int) (int64, int, error) {
	var result uint64
	var shift uint

	for chunks := 0; ; chunks++ {
		if cursor >= len(encoded) {
			return 0, cursor, &DecodeError{Offset: cursor, Err: ErrTruncated}
		}
		b := encoded[cursor]
		if b < minByte || b > maxByte {
			return 0, cursor, &DecodeError{Offset: cursor, Byte: b, Err: ErrInvalidByte}
		}
		if chunks == maxChunks {
			return 0, cursor, &DecodeError{Offset: cursor, Err: ErrOverflow}
		}

		chunk := uint64(b - minByte)
		result |= (chunk & chunkMask) << shift
		shift += chunkBits
		cursor++

		if chunk < continuationBit {
			break
		}
	}

	if result > math.MaxUint32 {
		return 0, cursor, &DecodeError{Offset: cursor - 1, Err: ErrOverflow}
	}

	delta := int64(result >> 1)
	if result&1 != 0 {
		delta = ^delta
	}
	return delta, cursor, nil
}

// Encode converts coordinates into an encoded polyline. Values are rounded
// half away from zero to the codec precision.
func (c Codec) Encode(coords []Coordinate) (string, error) {
	if len(coords) == 0 {
		return "", nil
	}

	buf := make([]byte, 0, len(coords)*8)
	var prevLat, prevLng int64

	for i, p := range coords {
		lat, ok := c.quantize(p.Lat)
		if !ok {
			return "", &EncodeError{Index: i, Err: ErrOverflow}
		}
		lng, ok := c.quantize(p.Lng)
		if !ok {
			return "", &EncodeError{Index: i, Err: ErrOverflow}
		}

		dlat, dlng := lat-prevLat, lng-prevLng
		if !fitsInt32(dlat) || !fitsInt32(dlng) {
			return "", &EncodeError{Index: i, Err: ErrOverflow}
		}

		buf = appendValue(buf, dlat)
		buf = appendValue(buf, dlng)
		prevLat, prevLng = lat, lng
	}

	return string(buf), nil
}

// quantize scales degrees to an integer at the codec precision.
func (c Codec) quantize(deg float64) (int64, bool) {
	v := math.Round(deg * c.factor)
	if math.IsNaN(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int64(v), true
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// appendValue writes one signed value in zigzag form, least significant
// chunk first. At least one chunk is always written.
func appendValue(buf []byte, value int64) []byte {
	shifted := uint64(value << 1)
	if value < 0 {
		shifted = ^shifted
	}

	for shifted >= continuationBit {
		buf = append(buf, byte((shifted&chunkMask)|continuationBit)+minByte)
		shifted >>= chunkBits
	}
	return append(buf, byte(shifted)+minByte)
}
