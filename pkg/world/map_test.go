package world

import (
	"testing"

	"github.com/nero3327/oredit/pkg/types"
)

// TestNewMap 测试新地图的初始状态
func TestNewMap(t *testing.T) {
	m := NewMap(8, 6)

	if m.Width() != 8 || m.Height() != 6 {
		t.Fatalf("size: got %dx%d, want 8x6", m.Width(), m.Height())
	}

	// 所有单元格初始无资源
	for _, c := range m.AllCells() {
		if tile := m.ResourceAt(c); tile.Type != 0 {
			t.Fatalf("cell %v: got type %d, want 0", c, tile.Type)
		}
		// 地形覆盖层初始为"无覆盖"哨兵值
		if terrain := m.CustomTerrainAt(c); terrain != types.NoTerrain {
			t.Fatalf("cell %v: got terrain %d, want %d", c, terrain, types.NoTerrain)
		}
	}
}

// TestMapSetResource 测试资源读写和越界行为
func TestMapSetResource(t *testing.T) {
	m := NewMap(4, 4)
	c := types.CPos{X: 2, Y: 1}

	m.SetResource(c, types.ResourceTile{Type: 1, Index: 7})
	got := m.ResourceAt(c)
	if got.Type != 1 || got.Index != 7 {
		t.Errorf("ResourceAt: got %+v, want {Type:1 Index:7}", got)
	}

	// 越界写入被忽略，越界读取返回零值
	outside := types.CPos{X: -1, Y: 2}
	m.SetResource(outside, types.ResourceTile{Type: 9})
	if got := m.ResourceAt(outside); got.Type != 0 {
		t.Errorf("out of bounds ResourceAt: got %+v, want zero tile", got)
	}
	if m.InBounds(outside) {
		t.Error("InBounds(-1, 2): got true, want false")
	}
}

// TestMapNotify 测试写入通知：每次写入同步通知，携带准确的单元格坐标
func TestMapNotify(t *testing.T) {
	m := NewMap(4, 4)

	var notified []types.CPos
	m.Subscribe(func(c types.CPos) {
		notified = append(notified, c)
	})

	c := types.CPos{X: 3, Y: 2}
	m.SetResource(c, types.ResourceTile{Type: 1})
	if len(notified) != 1 || notified[0] != c {
		t.Fatalf("notified: got %v, want [%v]", notified, c)
	}

	// 重复写入相同值仍然通知，由调用方决定是否跳过
	m.SetResource(c, types.ResourceTile{Type: 1})
	if len(notified) != 2 {
		t.Errorf("notified after duplicate write: got %d calls, want 2", len(notified))
	}

	// 越界写入不通知
	m.SetResource(types.CPos{X: 99, Y: 0}, types.ResourceTile{Type: 1})
	if len(notified) != 2 {
		t.Errorf("notified after out-of-bounds write: got %d calls, want 2", len(notified))
	}
}

// TestMapSubscribeCancel 测试取消订阅后不再收到通知，且取消函数可重复调用
func TestMapSubscribeCancel(t *testing.T) {
	m := NewMap(4, 4)

	first := 0
	second := 0
	cancelFirst := m.Subscribe(func(types.CPos) { first++ })
	m.Subscribe(func(types.CPos) { second++ })

	m.SetResource(types.CPos{X: 0, Y: 0}, types.ResourceTile{Type: 1})
	if first != 1 || second != 1 {
		t.Fatalf("before cancel: got first=%d second=%d, want 1 1", first, second)
	}

	cancelFirst()
	cancelFirst() // 重复取消应当无副作用

	m.SetResource(types.CPos{X: 1, Y: 0}, types.ResourceTile{Type: 2})
	if first != 1 {
		t.Errorf("after cancel: first got %d calls, want 1", first)
	}
	if second != 2 {
		t.Errorf("after cancel: second got %d calls, want 2", second)
	}
}

// TestMapCustomTerrain 测试地形覆盖层读写，覆盖层写入不触发通知
func TestMapCustomTerrain(t *testing.T) {
	m := NewMap(4, 4)

	notified := 0
	m.Subscribe(func(types.CPos) { notified++ })

	c := types.CPos{X: 1, Y: 1}
	m.SetCustomTerrain(c, 2)
	if got := m.CustomTerrainAt(c); got != 2 {
		t.Errorf("CustomTerrainAt: got %d, want 2", got)
	}
	if notified != 0 {
		t.Errorf("terrain write triggered %d notifications, want 0", notified)
	}

	// 越界读取返回哨兵值
	if got := m.CustomTerrainAt(types.CPos{X: -1, Y: 0}); got != types.NoTerrain {
		t.Errorf("out of bounds CustomTerrainAt: got %d, want %d", got, types.NoTerrain)
	}
}

// TestMapAllCells 测试单元格枚举的数量和行优先顺序
func TestMapAllCells(t *testing.T) {
	m := NewMap(3, 2)

	cells := m.AllCells()
	if len(cells) != 6 {
		t.Fatalf("AllCells length: got %d, want 6", len(cells))
	}

	want := []types.CPos{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1},
	}
	for i, c := range cells {
		if c != want[i] {
			t.Fatalf("AllCells[%d]: got %v, want %v", i, c, want[i])
		}
	}
}
