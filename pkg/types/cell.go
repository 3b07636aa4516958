// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "fmt"

// CPos 表示地图网格中的一个单元格坐标
type CPos struct {
	X int
	Y int
}

// Add 返回偏移 (dx, dy) 之后的单元格坐标
func (c CPos) Add(dx, dy int) CPos {
	return CPos{X: c.X + dx, Y: c.Y + dy}
}

// String 返回 "(x, y)" 形式的坐标文本，用于日志输出
func (c CPos) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// ResourceTile 是地图资源图层中一个单元格的原始数据
// Type 为资源类型字节，0 表示无资源；
// Index 为地图文件中携带的原始字节，加载与保存时原样保留
type ResourceTile struct {
	Type  uint8
	Index uint8
}

// NoTerrain 是自定义地形覆盖层的哨兵值，表示该单元格没有地形覆盖
const NoTerrain uint8 = 0xFF
