// Package editor 实现地图编辑器的资源图层和编辑会话状态
// 资源图层跟踪每个单元格的资源内容，按 3x3 邻域计算密度，
// 维护资源总价值，并把单元格外观写入按 palette 分组的渲染批次
package editor

import (
	"log"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/types"
	"github.com/nero3327/oredit/pkg/world"
)

// CellContents 一个单元格的资源内容
// Type 为 nil 表示空单元格，此时密度为 0 且没有帧序列
type CellContents struct {
	// Type 占用该单元格的资源类型，nil 表示空
	Type *world.ResourceType

	// Density 当前密度，资源单元格取值 [1, MaxDensity]，空单元格为 0
	Density int

	// Variant 放置时随机选定的外观变体名
	// 变体只在单元格被重新解析时改变，邻居变化不会触发重选
	Variant string

	// Sequence 变体对应的帧序列，结算时从 Type.Variants 解析
	Sequence *sprite.Sequence

	// Frame 按密度插值得到的帧下标
	Frame int
}

// ResourceLayer 资源图层
// 订阅地图的单元格写入，把原始资源数据解析为单元格内容。
// 单元格变化只把自身和邻居标记为脏，密度、总价值和动画帧
// 在每帧的 Reconcile 中统一结算，同一单元格一帧内多次变化只结算一次
type ResourceLayer struct {
	m        *world.Map
	registry *world.ResourceRegistry
	rng      *rand.Rand

	// tiles 按行优先顺序存储每个单元格的内容
	tiles []CellContents

	// dirty 待结算的单元格集合
	dirty map[types.CPos]struct{}

	// batches 按 palette 分组的渲染批次，顺序固定
	batches []*SpriteBatch

	// netWorth 地图上全部资源的总价值
	netWorth int

	// loggedUnknown 已记录过日志的未知类型字节，避免每帧刷屏
	loggedUnknown map[uint8]bool

	unsubscribe func()
	disposed    bool
}

// blockSize 密度插值的分母：3x3 邻域的单元格总数
// 边界处的邻域不足 9 格时，界外单元格按空计
const blockSize = 9

// NewResourceLayer 创建资源图层
// 渲染批次在建立任何图层状态之前构建，palette 配置冲突直接返回错误。
// 创建成功后图层已订阅地图变化，并通过激活扫描把地图上已有的资源纳入结算
// 参数：
//   - m: 地图模型
//   - registry: 资源类型注册表
//   - rng: 变体选择的随机源，为 nil 时使用随机种子；测试传入固定种子可复现
//
// 返回：
//   - *ResourceLayer: 图层实例
//   - error: palette 批次约束冲突时返回错误，此时不会建立任何状态
func NewResourceLayer(m *world.Map, registry *world.ResourceRegistry, rng *rand.Rand) (*ResourceLayer, error) {
	batches, err := buildSpriteBatches(registry)
	if err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	l := &ResourceLayer{
		m:             m,
		registry:      registry,
		rng:           rng,
		tiles:         make([]CellContents, m.Width()*m.Height()),
		dirty:         make(map[types.CPos]struct{}),
		batches:       batches,
		loggedUnknown: make(map[uint8]bool),
	}
	l.unsubscribe = m.Subscribe(l.UpdateCell)

	// 激活扫描
	for _, c := range m.AllCells() {
		l.UpdateCell(c)
	}
	return l, nil
}

func (l *ResourceLayer) index(c types.CPos) int {
	return c.Y*l.m.Width() + c.X
}

// UpdateCell 重新解析一个单元格的原始资源数据
// 旧内容的价值先从总价值回滚；新类型解析成功时随机选定外观变体，
// 并把类型的地形索引写入地形覆盖层，未注册的类型字节按空单元格处理。
// 最后把该单元格和全部 8 个邻居标记为脏，密度和帧留到 Reconcile 结算
func (l *ResourceLayer) UpdateCell(cell types.CPos) {
	if l.disposed || !l.m.InBounds(cell) {
		return
	}

	idx := l.index(cell)
	prev := l.tiles[idx]

	// 回滚旧内容的价值贡献，+1 与结算时的累加保持对称
	if prev.Density > 0 {
		l.netWorth -= (prev.Density + 1) * prev.Type.ValuePerUnit
	}

	tile := l.m.ResourceAt(cell)
	if rt, ok := l.registry.ByTileType(tile.Type); ok {
		l.tiles[idx] = CellContents{
			Type:    rt,
			Variant: l.chooseVariant(rt),
		}
		if terrain, ok := l.registry.Tileset().TerrainIndex(rt.TerrainType); ok {
			l.m.SetCustomTerrain(cell, terrain)
		}
	} else {
		if tile.Type != 0 && !l.loggedUnknown[tile.Type] {
			l.loggedUnknown[tile.Type] = true
			log.Printf("[ResourceLayer] ignoring unknown resource type %d at %v", tile.Type, cell)
		}
		l.tiles[idx] = CellContents{}
		l.m.SetCustomTerrain(cell, types.NoTerrain)
	}

	// 密度依赖 3x3 邻域，单元格变化后自身和全部邻居都要重算
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			l.dirty[cell.Add(dx, dy)] = struct{}{}
		}
	}
}

// chooseVariant 从类型的变体列表中随机选一个变体名
func (l *ResourceLayer) chooseVariant(rt *world.ResourceType) string {
	return rt.VariantNames[l.rng.IntN(len(rt.VariantNames))]
}

// ResourceDensityAt 按 3x3 邻域计算单元格的密度
// 计数包含单元格自身，只统计原始类型与自身相同的单元格。
// 密度按计数在 [0, MaxDensity] 上整数插值，资源单元格的密度至少为 1；
// 原始类型未注册的单元格密度为 0
func (l *ResourceLayer) ResourceDensityAt(cell types.CPos) int {
	tile := l.m.ResourceAt(cell)
	rt, ok := l.registry.ByTileType(tile.Type)
	if !ok {
		return 0
	}

	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			n := cell.Add(dx, dy)
			if l.m.InBounds(n) && l.m.ResourceAt(n).Type == tile.Type {
				count++
			}
		}
	}

	density := lerp(0, rt.MaxDensity, count, blockSize)
	if density < 1 {
		density = 1
	}
	return density
}

// lerp 整数线性插值，结果向零截断
func lerp(a, b, mul, div int) int {
	return a + (b-a)*mul/div
}

// updateDirtyTile 结算一个脏单元格，返回新内容
// 空单元格只清掉帧序列；资源单元格回滚旧价值、重算密度、
// 累加新价值，并按密度在帧序列上插值出动画帧
func (l *ResourceLayer) updateDirtyTile(cell types.CPos) CellContents {
	t := l.tiles[l.index(cell)]

	if t.Type == nil {
		t.Sequence = nil
		return t
	}

	if t.Density > 0 {
		l.netWorth -= (t.Density + 1) * t.Type.ValuePerUnit
	}
	t.Density = l.ResourceDensityAt(cell)
	l.netWorth += (t.Density + 1) * t.Type.ValuePerUnit

	t.Sequence = t.Type.Variants[t.Variant]
	t.Frame = lerp(0, t.Sequence.Len()-1, t.Density, t.Type.MaxDensity)
	return t
}

// Reconcile 结算脏集中的全部单元格并更新渲染批次
// 单元格内容写入匹配 palette 的批次，其余批次清除该单元格的记录；
// 全部结算完成后脏集清空。每个单元格的结算只依赖地图数据，
// 与脏集的遍历顺序无关
func (l *ResourceLayer) Reconcile() {
	if l.disposed {
		return
	}

	for cell := range l.dirty {
		// 脏集可能带有边界外的邻居坐标
		if !l.m.InBounds(cell) {
			continue
		}

		t := l.updateDirtyTile(cell)
		l.tiles[l.index(cell)] = t

		for _, b := range l.batches {
			if t.Type != nil && t.Type.Palette == b.palette {
				b.Update(cell, t.Sequence, t.Frame)
			} else {
				b.Update(cell, nil, 0)
			}
		}
	}
	clear(l.dirty)
}

// Draw 结算脏单元格后把全部渲染批次提交到屏幕
func (l *ResourceLayer) Draw(screen *ebiten.Image, camX, camY float64) {
	l.Reconcile()
	for _, b := range l.batches {
		b.Draw(screen, camX, camY)
	}
}

// Contents 返回单元格当前内容的副本
// 越界坐标返回空内容。脏集尚未结算时返回的是上一次结算的内容
func (l *ResourceLayer) Contents(cell types.CPos) CellContents {
	if !l.m.InBounds(cell) {
		return CellContents{}
	}
	return l.tiles[l.index(cell)]
}

// NetWorth 返回地图上全部资源的总价值
func (l *ResourceLayer) NetWorth() int {
	return l.netWorth
}

// Dispose 取消地图订阅并释放全部渲染批次
// 可以安全地多次调用，之后图层不再响应任何更新
func (l *ResourceLayer) Dispose() {
	if l.disposed {
		return
	}
	l.disposed = true

	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
	for _, b := range l.batches {
		b.release()
	}
	l.batches = nil
}
