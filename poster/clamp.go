package poster

// ClampToCanvas 把图层盒钳制进画布 [0,W]×[0,H]：
// 先把宽高压进画布，再把 x/y 拉回使右/下边不越界，最后保证盒子不塌缩成零
// （文本图层尤其不能塌缩，否则内容完全不可见）。
// 该函数是幂等的：clamp(clamp(l)) == clamp(l)。
func ClampToCanvas(l Layer, canvasWidth, canvasHeight int) Layer {
	if l.Width > canvasWidth {
		l.Width = canvasWidth
	}
	if l.Height > canvasHeight {
		l.Height = canvasHeight
	}
	if l.Width < 1 {
		l.Width = 1
	}
	if l.Height < 1 {
		l.Height = 1
	}

	if l.X < 0 {
		l.X = 0
	}
	if l.Y < 0 {
		l.Y = 0
	}
	if l.X+l.Width > canvasWidth {
		l.X = canvasWidth - l.Width
	}
	if l.Y+l.Height > canvasHeight {
		l.Y = canvasHeight - l.Height
	}
	return l
}
