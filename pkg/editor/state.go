package editor

// Eraser 橡皮擦笔刷的下标值
const Eraser = -1

// EditorState 一次编辑会话的可变状态
// 实例由应用持有并显式传递，不使用全局单例
type EditorState struct {
	// SelectedBrush 当前笔刷：资源在注册表声明顺序中的下标，
	// Eraser 表示橡皮擦
	SelectedBrush int

	// CameraX, CameraY 相机左上角的世界坐标（像素）
	CameraX float64
	CameraY float64

	// GridOverlay 是否绘制网格线
	GridOverlay bool

	// ShowNetWorth 是否在信息栏显示资源总价值
	ShowNetWorth bool
}

// NewEditorState 创建默认会话状态
// 选中第一种资源，网格线和总价值显示开启
func NewEditorState() *EditorState {
	return &EditorState{
		SelectedBrush: 0,
		GridOverlay:   true,
		ShowNetWorth:  true,
	}
}

// SelectBrush 选择笔刷
// brush 超出 [Eraser, count) 范围时忽略
func (s *EditorState) SelectBrush(brush, count int) {
	if brush < Eraser || brush >= count {
		return
	}
	s.SelectedBrush = brush
}

// NextBrush 轮换到下一个笔刷，橡皮擦排在全部资源之后
func (s *EditorState) NextBrush(count int) {
	if count < 1 {
		s.SelectedBrush = Eraser
		return
	}
	if s.SelectedBrush == Eraser {
		s.SelectedBrush = 0
		return
	}

	s.SelectedBrush++
	if s.SelectedBrush >= count {
		s.SelectedBrush = Eraser
	}
}

// ToggleGrid 切换网格线显示，返回新状态
func (s *EditorState) ToggleGrid() bool {
	s.GridOverlay = !s.GridOverlay
	return s.GridOverlay
}

// ToggleNetWorth 切换总价值显示，返回新状态
func (s *EditorState) ToggleNetWorth() bool {
	s.ShowNetWorth = !s.ShowNetWorth
	return s.ShowNetWorth
}
