// ABOUTME: Bit-depth conversion for device playback
// ABOUTME: Converts 8/16/24/32-bit PCM payloads to signed 16-bit little-endian
package audio

import "encoding/binary"

// ToInt16LE converts a PCM payload at the format's bit depth to signed
// 16-bit little-endian, the only sample format the device output plays.
// 16-bit input is passed through unchanged.
func ToInt16LE(f Format, data []byte) []byte {
	switch f.SampleBits {
	case 8:
		// 8-bit PCM is unsigned on the wire.
		out := make([]byte, len(data)*2)
		for i, s := range data {
			v := (int16(s) - 128) << 8
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out
	case 24:
		n := len(data) / 3
		out := make([]byte, n*2)
		for i := 0; i < n; i++ {
			// Keep the two high bytes of each little-endian sample.
			out[i*2] = data[i*3+1]
			out[i*2+1] = data[i*3+2]
		}
		return out
	case 32:
		n := len(data) / 4
		out := make([]byte, n*2)
		for i := 0; i < n; i++ {
			out[i*2] = data[i*4+2]
			out[i*2+1] = data[i*4+3]
		}
		return out
	default:
		return data
	}
}
