// Package world 提供编辑器操作的地图模型：
// 资源图层的原始单元格数据、自定义地形覆盖层、资源类型注册表、
// 程序化地图生成以及地图文档的加载与保存。
package world

import (
	"github.com/nero3327/oredit/pkg/types"
)

// Map 是一次编辑会话中的地图模型
// 持有资源图层的原始单元格数据和自定义地形覆盖层，
// 并在单元格资源数据被写入时同步通知订阅者。
// Map 不做并发保护，所有访问都应发生在更新循环所在的 goroutine 中
type Map struct {
	width  int
	height int

	// resources 按行优先顺序存储每个单元格的原始资源数据
	resources []types.ResourceTile

	// customTerrain 自定义地形覆盖层，值为地形索引字节，
	// types.NoTerrain 表示无覆盖
	customTerrain []uint8

	// listeners 按订阅顺序保存回调，保证通知顺序确定
	listeners      []mapListener
	nextListenerID int
}

type mapListener struct {
	id int
	fn func(types.CPos)
}

// NewMap 创建指定尺寸的空地图
// 自定义地形覆盖层初始化为"无覆盖"
func NewMap(width, height int) *Map {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	m := &Map{
		width:         width,
		height:        height,
		resources:     make([]types.ResourceTile, width*height),
		customTerrain: make([]uint8, width*height),
	}
	for i := range m.customTerrain {
		m.customTerrain[i] = types.NoTerrain
	}
	return m
}

// Width 返回地图宽度（单元格数）
func (m *Map) Width() int {
	return m.width
}

// Height 返回地图高度（单元格数）
func (m *Map) Height() int {
	return m.height
}

// InBounds 判断单元格坐标是否在地图范围内
func (m *Map) InBounds(c types.CPos) bool {
	return c.X >= 0 && c.X < m.width && c.Y >= 0 && c.Y < m.height
}

func (m *Map) index(c types.CPos) int {
	return c.Y*m.width + c.X
}

// ResourceAt 返回单元格的原始资源数据
// 越界坐标返回零值（无资源）
func (m *Map) ResourceAt(c types.CPos) types.ResourceTile {
	if !m.InBounds(c) {
		return types.ResourceTile{}
	}
	return m.resources[m.index(c)]
}

// SetResource 写入单元格的原始资源数据，并同步通知所有订阅者
// 越界写入被忽略。与原始数据相同的写入也会触发通知，
// 是否跳过重复写入由调用方（笔刷）决定
func (m *Map) SetResource(c types.CPos, tile types.ResourceTile) {
	if !m.InBounds(c) {
		return
	}
	m.resources[m.index(c)] = tile

	for _, l := range m.listeners {
		l.fn(c)
	}
}

// CustomTerrainAt 返回单元格的自定义地形索引
// 越界坐标返回 types.NoTerrain
func (m *Map) CustomTerrainAt(c types.CPos) uint8 {
	if !m.InBounds(c) {
		return types.NoTerrain
	}
	return m.customTerrain[m.index(c)]
}

// SetCustomTerrain 写入单元格的自定义地形索引
// 地形覆盖层的写入不触发任何通知
func (m *Map) SetCustomTerrain(c types.CPos, terrain uint8) {
	if !m.InBounds(c) {
		return
	}
	m.customTerrain[m.index(c)] = terrain
}

// Subscribe 注册单元格资源变化的回调
// 返回取消订阅函数，取消函数可以安全地多次调用
func (m *Map) Subscribe(fn func(types.CPos)) func() {
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners = append(m.listeners, mapListener{id: id, fn: fn})

	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// AllCells 按行优先顺序返回地图上全部单元格的坐标
func (m *Map) AllCells() []types.CPos {
	cells := make([]types.CPos, 0, m.width*m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			cells = append(cells, types.CPos{X: x, Y: y})
		}
	}
	return cells
}
