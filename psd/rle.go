package psd

// PackBits 行程编码：PSD 通道数据 compression=1 使用的算法。
// 每行独立编码；重复 3 字节以上的串写为 (257-n, byte)，
// 字面串写为 (n-1, bytes...)，两种串长度都不超过 128。
func packBits(row []byte) []byte {
	var out []byte
	n := len(row)
	i := 0
	for i < n {
		// 找重复串
		run := 1
		for i+run < n && run < 128 && row[i+run] == row[i] {
			run++
		}
		if run >= 3 {
			out = append(out, byte(257-run), row[i])
			i += run
			continue
		}

		// 字面串：一直收集到出现 >=3 的重复或达到 128 字节
		start := i
		i += run
		for i < n && i-start < 128 {
			run = 1
			for i+run < n && run < 3 && row[i+run] == row[i] {
				run++
			}
			if run >= 3 {
				break
			}
			i += run
		}
		if i-start > 128 {
			i = start + 128
		}
		out = append(out, byte(i-start-1))
		out = append(out, row[start:i]...)
	}
	return out
}

// encodeRLEChannel 把单通道平面按行 PackBits 压缩，
// 返回每行的压缩字节数与拼接后的数据体。
func encodeRLEChannel(plane []byte, width, height int) (counts []uint16, data []byte) {
	counts = make([]uint16, height)
	for y := 0; y < height; y++ {
		packed := packBits(plane[y*width : (y+1)*width])
		counts[y] = uint16(len(packed))
		data = append(data, packed...)
	}
	return counts, data
}
