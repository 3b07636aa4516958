package config

// 编辑器布局常量
// 本文件定义了编辑器窗口、地图网格和交互的像素布局参数

// Window Configuration (窗口配置)
const (
	// ScreenWidth 窗口逻辑宽度（像素）
	ScreenWidth = 1152

	// ScreenHeight 窗口逻辑高度（像素）
	ScreenHeight = 768

	// HUDBarHeight 顶部信息栏高度（像素）
	// 信息栏显示当前笔刷、光标单元格与资源总价值，
	// 地图视口从信息栏下缘开始
	HUDBarHeight = 24
)

// Grid Configuration (网格配置)
const (
	// CellSize 单元格边长（像素）
	// 资源精灵帧和地形覆盖层着色均按该尺寸排布
	CellSize = 24

	// DefaultMapWidth 默认生成地图的宽度（单元格数）
	DefaultMapWidth = 96

	// DefaultMapHeight 默认生成地图的高度（单元格数）
	DefaultMapHeight = 64
)

// Interaction Configuration (交互配置)
const (
	// CameraPanSpeed 方向键平移相机的速度（像素/秒）
	CameraPanSpeed = 480.0

	// CursorPulseFrames 笔刷光标脉冲动画的周期（逻辑帧数）
	// 光标静止时动画计数器保持不动
	CursorPulseFrames = 30
)
