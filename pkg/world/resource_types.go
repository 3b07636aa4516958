package world

import (
	"fmt"
	"sort"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/config"
)

// Tileset 地形集：地形类型名到地形索引字节的映射表
type Tileset struct {
	name    string
	indices map[string]uint8
}

// NewTileset 从配置构建地形集
func NewTileset(cfg config.TilesetConfig) *Tileset {
	t := &Tileset{
		name:    cfg.Name,
		indices: make(map[string]uint8, len(cfg.Terrains)),
	}
	for _, terrain := range cfg.Terrains {
		t.indices[terrain.Type] = terrain.Index
	}
	return t
}

// Name 返回地形集名称
func (t *Tileset) Name() string {
	return t.name
}

// TerrainIndex 返回地形类型名对应的索引字节
// 未声明的地形类型返回 ok=false
func (t *Tileset) TerrainIndex(terrainType string) (uint8, bool) {
	index, ok := t.indices[terrainType]
	return index, ok
}

// ResourceType 一种可放置资源的完整定义
// 数值属性（价值、密度上限）和渲染属性（批次键、帧序列）都在这里
type ResourceType struct {
	// Index 资源类型字节，写入地图资源图层；0 保留表示无资源
	Index uint8

	// ID 资源的内部标识，如 "ore"
	ID string

	// Name 显示名称
	Name string

	// TerrainType 占用单元格时写入地形覆盖层的地形类型名
	TerrainType string

	// ValuePerUnit 每单位密度的价值
	ValuePerUnit int

	// MaxDensity 密度上限
	MaxDensity int

	// Palette 渲染批次键，相同 palette 的资源共享一个渲染批次
	Palette string

	// Variants 外观变体名到帧序列的映射
	Variants map[string]*sprite.Sequence

	// VariantNames 排序后的变体名列表
	// 随机选择按下标从这里取值，保证同一随机种子下结果可复现
	VariantNames []string
}

// ResourceRegistry 资源类型注册表
// 保存资源的声明顺序（笔刷轮换顺序）和按类型字节的查找表
type ResourceRegistry struct {
	tileset *Tileset
	types   []*ResourceType
	byIndex map[uint8]*ResourceType
}

// NewResourceRegistry 从已构建的资源类型列表创建注册表
// 类型字节为0或重复、变体缺帧、地形类型未在地形集中声明都会返回错误
func NewResourceRegistry(tileset *Tileset, resTypes []*ResourceType) (*ResourceRegistry, error) {
	if tileset == nil {
		return nil, fmt.Errorf("tileset is required")
	}

	r := &ResourceRegistry{
		tileset: tileset,
		byIndex: make(map[uint8]*ResourceType, len(resTypes)),
	}
	for _, rt := range resTypes {
		if rt.Index == 0 {
			return nil, fmt.Errorf("resource %q: index must be at least 1", rt.ID)
		}
		if _, exists := r.byIndex[rt.Index]; exists {
			return nil, fmt.Errorf("resource %q: duplicate resource index %d", rt.ID, rt.Index)
		}
		if _, ok := tileset.TerrainIndex(rt.TerrainType); !ok {
			return nil, fmt.Errorf("resource %q: terrainType %q is not declared in tileset %q", rt.ID, rt.TerrainType, tileset.Name())
		}
		if rt.MaxDensity < 1 {
			return nil, fmt.Errorf("resource %q: maxDensity must be at least 1, got %d", rt.ID, rt.MaxDensity)
		}
		if len(rt.VariantNames) == 0 {
			return nil, fmt.Errorf("resource %q: at least one variant is required", rt.ID)
		}
		for _, name := range rt.VariantNames {
			seq := rt.Variants[name]
			if seq == nil || seq.Len() == 0 {
				return nil, fmt.Errorf("resource %q: variant %q has no frames", rt.ID, name)
			}
		}

		r.types = append(r.types, rt)
		r.byIndex[rt.Index] = rt
	}
	return r, nil
}

// BuildRegistry 从配置和已构建的帧序列表创建注册表
// sequences 按资源ID和变体名索引，通常来自 sprite.SheetPlan.Sequences
func BuildRegistry(cfg *config.ResourceTypesConfig, sequences map[string]map[string]*sprite.Sequence) (*ResourceRegistry, error) {
	resTypes := make([]*ResourceType, 0, len(cfg.Resources))
	for _, rc := range cfg.Resources {
		variants := make(map[string]*sprite.Sequence, len(rc.Variants))
		names := make([]string, 0, len(rc.Variants))
		for _, vc := range rc.Variants {
			seq := sequences[rc.ID][vc.Name]
			if seq == nil {
				return nil, fmt.Errorf("resource %q: missing sequence for variant %q", rc.ID, vc.Name)
			}
			variants[vc.Name] = seq
			names = append(names, vc.Name)
		}
		sort.Strings(names)

		resTypes = append(resTypes, &ResourceType{
			Index:        rc.Index,
			ID:           rc.ID,
			Name:         rc.Name,
			TerrainType:  rc.TerrainType,
			ValuePerUnit: rc.ValuePerUnit,
			MaxDensity:   rc.MaxDensity,
			Palette:      rc.Palette,
			Variants:     variants,
			VariantNames: names,
		})
	}

	return NewResourceRegistry(NewTileset(cfg.Tileset), resTypes)
}

// Types 返回声明顺序的资源类型列表
func (r *ResourceRegistry) Types() []*ResourceType {
	return r.types
}

// ByTileType 按资源类型字节查找资源类型
// 未注册的类型字节返回 ok=false
func (r *ResourceRegistry) ByTileType(tileType uint8) (*ResourceType, bool) {
	rt, ok := r.byIndex[tileType]
	return rt, ok
}

// Tileset 返回注册表使用的地形集
func (r *ResourceRegistry) Tileset() *Tileset {
	return r.tileset
}
