package editor

// CursorAnim 笔刷光标的脉冲动画计数器
// 只在光标移动时推进，静止时停在当前帧
type CursorAnim struct {
	// Moving 当前帧光标是否在移动，由输入处理每帧设置
	Moving bool

	frames int
	frame  int
}

// NewCursorAnim 创建周期为 frames 的光标动画，frames 最小为 1
func NewCursorAnim(frames int) *CursorAnim {
	if frames < 1 {
		frames = 1
	}
	return &CursorAnim{frames: frames}
}

// Tick 推进一帧动画，计数到达周期后回绕到 0
// Moving 为 false 时计数器保持不动
func (a *CursorAnim) Tick() {
	if !a.Moving {
		return
	}
	a.frame = (a.frame + 1) % a.frames
}

// Frame 返回当前动画帧下标
func (a *CursorAnim) Frame() int {
	return a.frame
}

// Phase 返回动画进度，取值 [0, 1)，用于计算高亮强度
func (a *CursorAnim) Phase() float64 {
	return float64(a.frame) / float64(a.frames)
}

// Reset 把计数器归零
func (a *CursorAnim) Reset() {
	a.frame = 0
}
