package protocol

// crcA computes CRC-16/ISO-IEC 14443-3 Type A over data.
func crcA(data []byte) uint16 {
	crc := uint16(0x6363)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
