package editor

import (
	"image"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/types"
	"github.com/nero3327/oredit/pkg/world"
)

// 测试用数值：
// ore  类型字节 1，单位价值 25，密度上限 8，9 帧变体
// gems 类型字节 2，单位价值 50，密度上限 3，4 帧变体
// 密度上限与帧数的组合使 帧下标 == 密度，断言里直接对照

func testTilesetConfig() config.TilesetConfig {
	return config.TilesetConfig{
		Name: "temperat",
		Terrains: []config.TerrainConfig{
			{Type: "Clear", Index: 0},
			{Type: "Ore", Index: 1},
			{Type: "Gems", Index: 2},
		},
	}
}

// testSequence 构建无纹理的帧序列，帧的像素范围对测试无意义
func testSequence(sheet *sprite.Sheet, blend ebiten.Blend, name string, frames int) *sprite.Sequence {
	seq := &sprite.Sequence{Name: name}
	for i := 0; i < frames; i++ {
		seq.Frames = append(seq.Frames, sprite.Frame{
			Sheet:  sheet,
			Bounds: image.Rect(i*24, 0, (i+1)*24, 24),
			Blend:  blend,
		})
	}
	return seq
}

func testOreType(sheet *sprite.Sheet) *world.ResourceType {
	return &world.ResourceType{
		Index:        1,
		ID:           "ore",
		Name:         "Ore",
		TerrainType:  "Ore",
		ValuePerUnit: 25,
		MaxDensity:   8,
		Palette:      "terrain",
		Variants: map[string]*sprite.Sequence{
			"ore01": testSequence(sheet, ebiten.BlendSourceOver, "ore/ore01", 9),
			"ore02": testSequence(sheet, ebiten.BlendSourceOver, "ore/ore02", 9),
		},
		VariantNames: []string{"ore01", "ore02"},
	}
}

func testGemsType(sheet *sprite.Sheet) *world.ResourceType {
	return &world.ResourceType{
		Index:        2,
		ID:           "gems",
		Name:         "Gems",
		TerrainType:  "Gems",
		ValuePerUnit: 50,
		MaxDensity:   3,
		Palette:      "terrain",
		Variants: map[string]*sprite.Sequence{
			"gems01": testSequence(sheet, ebiten.BlendSourceOver, "gems/gems01", 4),
		},
		VariantNames: []string{"gems01"},
	}
}

func testRegistry(t *testing.T) *world.ResourceRegistry {
	t.Helper()
	sheet := &sprite.Sheet{Name: "terrain", W: 216, H: 72}
	registry, err := world.NewResourceRegistry(
		world.NewTileset(testTilesetConfig()),
		[]*world.ResourceType{testOreType(sheet), testGemsType(sheet)},
	)
	if err != nil {
		t.Fatalf("NewResourceRegistry failed: %v", err)
	}
	return registry
}

// newTestLayer 创建地图和图层，并结算激活扫描留下的脏集
func newTestLayer(t *testing.T, width, height int) (*world.Map, *ResourceLayer) {
	t.Helper()
	m := world.NewMap(width, height)
	l, err := NewResourceLayer(m, testRegistry(t), rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("NewResourceLayer failed: %v", err)
	}
	l.Reconcile()
	return m, l
}

func place(m *world.Map, x, y int, tileType uint8) {
	m.SetResource(types.CPos{X: x, Y: y}, types.ResourceTile{Type: tileType})
}

// bruteNetWorth 逐格累加总价值，用于和增量维护的结果对照
func bruteNetWorth(m *world.Map, l *ResourceLayer) int {
	total := 0
	for _, c := range m.AllCells() {
		t := l.Contents(c)
		if t.Type != nil && t.Density > 0 {
			total += (t.Density + 1) * t.Type.ValuePerUnit
		}
	}
	return total
}

// TestNewResourceLayer_EmptyMap 测试空地图上的初始状态
func TestNewResourceLayer_EmptyMap(t *testing.T) {
	m, l := newTestLayer(t, 4, 4)

	if l.NetWorth() != 0 {
		t.Errorf("NetWorth: got %d, want 0", l.NetWorth())
	}
	for _, c := range m.AllCells() {
		contents := l.Contents(c)
		if contents.Type != nil || contents.Density != 0 || contents.Sequence != nil {
			t.Fatalf("cell %v: got %+v, want empty contents", c, contents)
		}
	}
	if len(l.dirty) != 0 {
		t.Errorf("dirty set after reconcile: got %d entries, want 0", len(l.dirty))
	}
	for _, b := range l.batches {
		if b.Len() != 0 {
			t.Errorf("batch %q: got %d entries, want 0", b.Palette(), b.Len())
		}
	}
}

// TestUpdateCell_PlacesResource 测试放置资源：解析类型、选定变体、
// 写入地形覆盖层，结算后得到密度、帧和价值
func TestUpdateCell_PlacesResource(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)
	c := types.CPos{X: 2, Y: 2}

	place(m, 2, 2, 1)

	// 结算前：类型和变体已解析，密度和价值未结算
	contents := l.Contents(c)
	if contents.Type == nil || contents.Type.ID != "ore" {
		t.Fatalf("before reconcile: got type %+v, want ore", contents.Type)
	}
	if contents.Variant != "ore01" && contents.Variant != "ore02" {
		t.Errorf("variant: got %q, want one of the declared variants", contents.Variant)
	}
	if contents.Density != 0 {
		t.Errorf("before reconcile: density got %d, want 0", contents.Density)
	}

	// 地形覆盖层立即写入
	if terrain := m.CustomTerrainAt(c); terrain != 1 {
		t.Errorf("custom terrain: got %d, want 1", terrain)
	}

	l.Reconcile()

	// 孤立资源单元格密度下限为 1
	contents = l.Contents(c)
	if contents.Density != 1 {
		t.Errorf("density: got %d, want 1", contents.Density)
	}
	if contents.Sequence == nil || contents.Sequence != contents.Type.Variants[contents.Variant] {
		t.Error("sequence does not match the chosen variant")
	}
	if contents.Frame != 1 {
		t.Errorf("frame: got %d, want 1", contents.Frame)
	}
	if l.NetWorth() != (1+1)*25 {
		t.Errorf("NetWorth: got %d, want 50", l.NetWorth())
	}
}

// TestResourceDensity_FullBlock 测试 3x3 同类型实心块：
// 中心密度到达上限，块角按邻居数插值
func TestResourceDensity_FullBlock(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)

	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			place(m, x, y, 1)
		}
	}
	l.Reconcile()

	// 中心：9 个同类型邻居（含自身），密度 = 8*9/9 = 8
	center := l.Contents(types.CPos{X: 2, Y: 2})
	if center.Density != 8 {
		t.Errorf("center density: got %d, want 8", center.Density)
	}
	if center.Frame != 8 {
		t.Errorf("center frame: got %d, want 8", center.Frame)
	}

	// 块角 (1,1)：邻域内同类型 4 个，密度 = 8*4/9 = 3（整数截断）
	corner := l.Contents(types.CPos{X: 1, Y: 1})
	if corner.Density != 3 {
		t.Errorf("corner density: got %d, want 3", corner.Density)
	}

	// 查询接口与结算结果一致
	if d := l.ResourceDensityAt(types.CPos{X: 2, Y: 2}); d != 8 {
		t.Errorf("ResourceDensityAt(center): got %d, want 8", d)
	}

	if got, want := l.NetWorth(), bruteNetWorth(m, l); got != want {
		t.Errorf("NetWorth: got %d, want %d", got, want)
	}
}

// TestResourceDensity_GemsBoundaries 测试低密度上限类型的两端取值
func TestResourceDensity_GemsBoundaries(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)

	// 孤立 gems：插值结果 3*1/9 = 0，钳位到 1，帧 = 3*1/3 = 1
	place(m, 0, 0, 2)
	l.Reconcile()
	isolated := l.Contents(types.CPos{X: 0, Y: 0})
	if isolated.Density != 1 || isolated.Frame != 1 {
		t.Errorf("isolated gems: got density=%d frame=%d, want 1 1", isolated.Density, isolated.Frame)
	}

	// 实心 3x3 gems 块中心：密度 3（上限），帧 3（末帧）
	for y := 2; y <= 4; y++ {
		for x := 2; x <= 4; x++ {
			place(m, x, y, 2)
		}
	}
	l.Reconcile()
	center := l.Contents(types.CPos{X: 3, Y: 3})
	if center.Density != 3 || center.Frame != 3 {
		t.Errorf("full block gems: got density=%d frame=%d, want 3 3", center.Density, center.Frame)
	}
}

// TestResourceDensity_Monotonic 测试邻居逐个增加时目标单元格密度不回退
func TestResourceDensity_Monotonic(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)
	target := types.CPos{X: 2, Y: 2}

	place(m, 2, 2, 1)
	l.Reconcile()
	prev := l.Contents(target).Density

	neighbors := []types.CPos{
		{X: 3, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 3}, {X: 2, Y: 1},
		{X: 3, Y: 3}, {X: 1, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 3},
	}
	for _, n := range neighbors {
		place(m, n.X, n.Y, 1)
		l.Reconcile()

		d := l.Contents(target).Density
		if d < prev {
			t.Fatalf("density dropped from %d to %d after adding neighbor %v", prev, d, n)
		}
		prev = d
	}

	if prev != 8 {
		t.Errorf("density with full neighborhood: got %d, want 8", prev)
	}
}

// TestNetWorth_RemovalRollsBackExactValue 测试移除资源时按 (密度+1)*单位价值
// 精确回滚：密度 3、单位价值 25 的单元格被清空，总价值立即减少 100
func TestNetWorth_RemovalRollsBackExactValue(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)
	target := types.CPos{X: 2, Y: 2}

	// 目标加 3 个邻居：计数 4，密度 = 8*4/9 = 3
	place(m, 2, 2, 1)
	place(m, 1, 2, 1)
	place(m, 3, 2, 1)
	place(m, 2, 1, 1)
	l.Reconcile()

	if d := l.Contents(target).Density; d != 3 {
		t.Fatalf("target density: got %d, want 3", d)
	}
	before := l.NetWorth()

	// 擦除目标：回滚发生在通知处理中，结算之前就已生效
	m.SetResource(target, types.ResourceTile{})
	if got := before - l.NetWorth(); got != (3+1)*25 {
		t.Errorf("immediate rollback: got %d, want 100", got)
	}

	contents := l.Contents(target)
	if contents.Type != nil {
		t.Error("erased cell still has a type before reconcile")
	}

	l.Reconcile()

	contents = l.Contents(target)
	if contents.Type != nil || contents.Density != 0 || contents.Sequence != nil {
		t.Errorf("erased cell after reconcile: got %+v, want empty contents", contents)
	}
	if got, want := l.NetWorth(), bruteNetWorth(m, l); got != want {
		t.Errorf("NetWorth: got %d, want %d", got, want)
	}
}

// TestNetWorth_MatchesBruteForce 测试混合编辑序列后增量维护的总价值
// 与逐格求和一致
func TestNetWorth_MatchesBruteForce(t *testing.T) {
	m, l := newTestLayer(t, 8, 8)

	steps := []func(){
		func() {
			// 3x3 ore 块
			for y := 1; y <= 3; y++ {
				for x := 1; x <= 3; x++ {
					place(m, x, y, 1)
				}
			}
		},
		func() {
			// 相邻的 gems 矿脉
			place(m, 5, 5, 2)
			place(m, 6, 5, 2)
		},
		func() {
			// 用 gems 覆盖 ore 块中心
			place(m, 2, 2, 2)
		},
		func() {
			// 擦除块角
			m.SetResource(types.CPos{X: 1, Y: 1}, types.ResourceTile{})
		},
	}

	for i, step := range steps {
		step()
		l.Reconcile()
		if got, want := l.NetWorth(), bruteNetWorth(m, l); got != want {
			t.Fatalf("step %d: NetWorth got %d, want %d", i, got, want)
		}
	}
}

// TestUpdateCell_MarksNeighborhoodDirty 测试单元格变化把自身和
// 全部 8 个邻居标记为脏，边界处照常标记界外坐标
func TestUpdateCell_MarksNeighborhoodDirty(t *testing.T) {
	m, l := newTestLayer(t, 4, 4)

	place(m, 2, 2, 1)
	if len(l.dirty) != 9 {
		t.Fatalf("dirty after interior update: got %d entries, want 9", len(l.dirty))
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			n := types.CPos{X: 2 + dx, Y: 2 + dy}
			if _, ok := l.dirty[n]; !ok {
				t.Errorf("neighbor %v missing from dirty set", n)
			}
		}
	}
	l.Reconcile()

	// 地图角落：界外邻居也进脏集，结算时跳过
	place(m, 0, 0, 1)
	if len(l.dirty) != 9 {
		t.Fatalf("dirty after corner update: got %d entries, want 9", len(l.dirty))
	}
	if _, ok := l.dirty[types.CPos{X: -1, Y: -1}]; !ok {
		t.Error("out-of-bounds neighbor missing from dirty set")
	}
	l.Reconcile()
	if len(l.dirty) != 0 {
		t.Errorf("dirty after reconcile: got %d entries, want 0", len(l.dirty))
	}
}

// TestDirtySetDeduplicates 测试相邻单元格的脏邻域合并，一帧内不重复
func TestDirtySetDeduplicates(t *testing.T) {
	m, l := newTestLayer(t, 6, 6)

	place(m, 2, 2, 1)
	place(m, 2, 3, 1)

	// 两个 3x3 邻域重叠 6 格：9 + 9 - 6 = 12
	if len(l.dirty) != 12 {
		t.Errorf("dirty union: got %d entries, want 12", len(l.dirty))
	}
}

// TestVariantStableAcrossNeighborChanges 测试邻居变化只重算密度和帧，
// 不重选外观变体
func TestVariantStableAcrossNeighborChanges(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)
	target := types.CPos{X: 2, Y: 2}

	place(m, 2, 2, 1)
	l.Reconcile()
	variant := l.Contents(target).Variant

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			place(m, 2+dx, 2+dy, 1)
			l.Reconcile()
			if got := l.Contents(target).Variant; got != variant {
				t.Fatalf("variant changed from %q to %q after neighbor update", variant, got)
			}
		}
	}

	// 密度随邻居增长，帧跟随密度
	contents := l.Contents(target)
	if contents.Density != 8 || contents.Frame != 8 {
		t.Errorf("full neighborhood: got density=%d frame=%d, want 8 8", contents.Density, contents.Frame)
	}
}

// TestUpdateCell_RepeatKeepsSimState 测试对未变化单元格重复解析不影响
// 密度、价值等结算状态（外观变体允许重选）
func TestUpdateCell_RepeatKeepsSimState(t *testing.T) {
	m, l := newTestLayer(t, 5, 5)
	target := types.CPos{X: 2, Y: 2}

	place(m, 2, 2, 1)
	l.Reconcile()
	worth := l.NetWorth()
	density := l.Contents(target).Density

	l.UpdateCell(target)
	l.Reconcile()

	if l.NetWorth() != worth {
		t.Errorf("NetWorth after repeat: got %d, want %d", l.NetWorth(), worth)
	}
	contents := l.Contents(target)
	if contents.Density != density {
		t.Errorf("density after repeat: got %d, want %d", contents.Density, density)
	}
	if contents.Type == nil || contents.Type.ID != "ore" {
		t.Error("type changed after repeat update")
	}
}

// TestUnknownTypeTreatedAsEmpty 测试未注册的类型字节按空单元格处理
func TestUnknownTypeTreatedAsEmpty(t *testing.T) {
	m, l := newTestLayer(t, 4, 4)
	c := types.CPos{X: 1, Y: 1}

	place(m, 1, 1, 7)
	l.Reconcile()

	contents := l.Contents(c)
	if contents.Type != nil || contents.Density != 0 || contents.Sequence != nil {
		t.Errorf("unknown type contents: got %+v, want empty", contents)
	}
	if l.NetWorth() != 0 {
		t.Errorf("NetWorth: got %d, want 0", l.NetWorth())
	}
	if terrain := m.CustomTerrainAt(c); terrain != types.NoTerrain {
		t.Errorf("custom terrain: got %d, want %d", terrain, types.NoTerrain)
	}
	if d := l.ResourceDensityAt(c); d != 0 {
		t.Errorf("ResourceDensityAt: got %d, want 0", d)
	}
	if !l.loggedUnknown[7] {
		t.Error("unknown type byte was not recorded for log suppression")
	}
}

// TestActivationSweep 测试图层创建时把地图上已有的资源全部纳入结算
func TestActivationSweep(t *testing.T) {
	m := world.NewMap(6, 6)

	// 先放资源再建图层：2x2 ore 块，每格计数 4，密度 8*4/9 = 3
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			place(m, x, y, 1)
		}
	}

	l, err := NewResourceLayer(m, testRegistry(t), rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("NewResourceLayer failed: %v", err)
	}
	l.Reconcile()

	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			if d := l.Contents(types.CPos{X: x, Y: y}).Density; d != 3 {
				t.Errorf("cell (%d, %d): density got %d, want 3", x, y, d)
			}
		}
	}
	if want := 4 * (3 + 1) * 25; l.NetWorth() != want {
		t.Errorf("NetWorth: got %d, want %d", l.NetWorth(), want)
	}

	// 地形覆盖层由激活扫描写入
	if terrain := m.CustomTerrainAt(types.CPos{X: 1, Y: 1}); terrain != 1 {
		t.Errorf("custom terrain: got %d, want 1", terrain)
	}
}

// TestBatchRouting 测试单元格内容写入匹配 palette 的批次，
// 其余批次清除该单元格
func TestBatchRouting(t *testing.T) {
	terrainSheet := &sprite.Sheet{Name: "terrain", W: 216, H: 72}
	glowSheet := &sprite.Sheet{Name: "glow", W: 96, H: 24}

	flare := &world.ResourceType{
		Index:        3,
		ID:           "flare",
		Name:         "Flare",
		TerrainType:  "Clear",
		ValuePerUnit: 10,
		MaxDensity:   2,
		Palette:      "glow",
		Variants: map[string]*sprite.Sequence{
			"flare01": testSequence(glowSheet, ebiten.BlendLighter, "flare/flare01", 4),
		},
		VariantNames: []string{"flare01"},
	}

	registry, err := world.NewResourceRegistry(
		world.NewTileset(testTilesetConfig()),
		[]*world.ResourceType{testOreType(terrainSheet), flare},
	)
	if err != nil {
		t.Fatalf("NewResourceRegistry failed: %v", err)
	}

	m := world.NewMap(6, 6)
	l, err := NewResourceLayer(m, registry, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("NewResourceLayer failed: %v", err)
	}
	l.Reconcile()

	if len(l.batches) != 2 {
		t.Fatalf("batches: got %d, want 2", len(l.batches))
	}
	terrainBatch, glowBatch := l.batches[0], l.batches[1]
	if terrainBatch.Palette() != "terrain" || glowBatch.Palette() != "glow" {
		t.Fatalf("batch order: got [%s %s], want [terrain glow]", terrainBatch.Palette(), glowBatch.Palette())
	}

	oreCell := types.CPos{X: 1, Y: 1}
	flareCell := types.CPos{X: 4, Y: 4}
	place(m, 1, 1, 1)
	place(m, 4, 4, 3)
	l.Reconcile()

	if _, ok := terrainBatch.entries[oreCell]; !ok {
		t.Error("ore cell missing from terrain batch")
	}
	if _, ok := glowBatch.entries[oreCell]; ok {
		t.Error("ore cell leaked into glow batch")
	}
	if _, ok := glowBatch.entries[flareCell]; !ok {
		t.Error("flare cell missing from glow batch")
	}

	// 覆盖 ore 单元格为 flare：记录迁移到 glow 批次
	place(m, 1, 1, 3)
	l.Reconcile()

	if _, ok := terrainBatch.entries[oreCell]; ok {
		t.Error("overwritten cell still present in terrain batch")
	}
	if _, ok := glowBatch.entries[oreCell]; !ok {
		t.Error("overwritten cell missing from glow batch")
	}

	// 擦除后两个批次都清除该单元格
	m.SetResource(oreCell, types.ResourceTile{})
	l.Reconcile()
	if _, ok := glowBatch.entries[oreCell]; ok {
		t.Error("erased cell still present in glow batch")
	}
}

// TestNewResourceLayer_BatchConflicts 测试 palette 批次约束冲突时
// 构建失败且错误指明冲突的 palette
func TestNewResourceLayer_BatchConflicts(t *testing.T) {
	terrainSheet := &sprite.Sheet{Name: "terrain", W: 216, H: 72}
	otherSheet := &sprite.Sheet{Name: "other", W: 96, H: 24}

	t.Run("sheet conflict", func(t *testing.T) {
		bad := testGemsType(otherSheet)
		registry, err := world.NewResourceRegistry(
			world.NewTileset(testTilesetConfig()),
			[]*world.ResourceType{testOreType(terrainSheet), bad},
		)
		if err != nil {
			t.Fatalf("NewResourceRegistry failed: %v", err)
		}

		_, err = NewResourceLayer(world.NewMap(4, 4), registry, nil)
		if err == nil {
			t.Fatal("NewResourceLayer: got nil error, want sheet conflict")
		}
		if !strings.Contains(err.Error(), `"terrain"`) {
			t.Errorf("error %q does not name the conflicting palette", err)
		}
	})

	t.Run("blend conflict", func(t *testing.T) {
		bad := testGemsType(terrainSheet)
		bad.Variants["gems01"] = testSequence(terrainSheet, ebiten.BlendLighter, "gems/gems01", 4)
		registry, err := world.NewResourceRegistry(
			world.NewTileset(testTilesetConfig()),
			[]*world.ResourceType{testOreType(terrainSheet), bad},
		)
		if err != nil {
			t.Fatalf("NewResourceRegistry failed: %v", err)
		}

		_, err = NewResourceLayer(world.NewMap(4, 4), registry, nil)
		if err == nil {
			t.Fatal("NewResourceLayer: got nil error, want blend conflict")
		}
		if !strings.Contains(err.Error(), "blend") {
			t.Errorf("error %q does not mention the blend mode", err)
		}
	})
}

// TestDispose 测试释放后不再响应地图变化，重复释放无副作用
func TestDispose(t *testing.T) {
	m, l := newTestLayer(t, 4, 4)

	place(m, 1, 1, 1)
	l.Reconcile()
	worth := l.NetWorth()

	l.Dispose()
	l.Dispose()

	// 已退订：后续写入不影响图层
	place(m, 2, 2, 1)
	if l.NetWorth() != worth {
		t.Errorf("NetWorth after dispose: got %d, want %d", l.NetWorth(), worth)
	}

	// 释放后的结算与直接调用都被忽略
	l.Reconcile()
	l.UpdateCell(types.CPos{X: 2, Y: 2})
	if l.NetWorth() != worth {
		t.Errorf("NetWorth after post-dispose updates: got %d, want %d", l.NetWorth(), worth)
	}
}

// TestContents_OutOfBounds 测试越界查询返回空内容
func TestContents_OutOfBounds(t *testing.T) {
	_, l := newTestLayer(t, 4, 4)

	contents := l.Contents(types.CPos{X: -1, Y: 0})
	if contents.Type != nil || contents.Density != 0 {
		t.Errorf("out of bounds contents: got %+v, want empty", contents)
	}
}
