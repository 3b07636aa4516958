package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nero3327/oredit/pkg/embedded"
	"github.com/nero3327/oredit/pkg/types"
)

// ResourceTypesConfig 资源类型配置数据结构
// 定义了地形集和编辑器可放置的全部资源类型
type ResourceTypesConfig struct {
	Tileset   TilesetConfig        `yaml:"tileset"`   // 地形集定义
	Resources []ResourceTypeConfig `yaml:"resources"` // 资源类型列表（声明顺序即笔刷顺序）
}

// TilesetConfig 地形集配置
// 列出地形类型名到地形索引字节的映射表
type TilesetConfig struct {
	Name     string          `yaml:"name"`     // 地形集名称，如 "temperat"
	Terrains []TerrainConfig `yaml:"terrains"` // 地形类型列表
}

// TerrainConfig 单个地形类型配置
type TerrainConfig struct {
	Type  string `yaml:"type"`  // 地形类型名，如 "Ore"
	Index uint8  `yaml:"index"` // 地形索引字节，写入自定义地形覆盖层
}

// ResourceTypeConfig 单个资源类型配置
// 定义了资源的数值属性和渲染属性
type ResourceTypeConfig struct {
	ID           string          `yaml:"id"`           // 资源ID，如 "ore"
	Name         string          `yaml:"name"`         // 显示名称，默认与ID相同
	Index        uint8           `yaml:"index"`        // 资源类型字节（>=1，0保留表示无资源）
	TerrainType  string          `yaml:"terrainType"`  // 占用单元格时写入的地形类型，必须在 tileset 中声明
	ValuePerUnit int             `yaml:"valuePerUnit"` // 每单位密度的价值
	MaxDensity   int             `yaml:"maxDensity"`   // 密度上限（>=1）
	Palette      string          `yaml:"palette"`      // 渲染批次键，同一 palette 的资源共享一个批次
	Sheet        string          `yaml:"sheet"`        // 精灵表名称，默认与 palette 相同
	Blend        string          `yaml:"blend"`        // 混合模式："alpha" 或 "additive"，默认 "alpha"
	Color        string          `yaml:"color"`        // 基准颜色，"#rrggbb" 格式
	Variants     []VariantConfig `yaml:"variants"`     // 外观变体列表（至少一个）
}

// VariantConfig 单个外观变体配置
type VariantConfig struct {
	Name   string `yaml:"name"`   // 变体名，资源内唯一
	Frames int    `yaml:"frames"` // 动画帧数（>=1），帧序号随密度插值
}

// 合法的混合模式取值
const (
	BlendAlpha    = "alpha"
	BlendAdditive = "additive"
)

// LoadResourceTypesConfig 从YAML文件加载资源类型配置
// 优先从嵌入资源读取；embedded 包未初始化或文件不存在时回退到磁盘，
// 便于 cmd/ 下的命令行工具直接读取源码树中的配置
// 参数：
//
//	path - 配置文件路径，如 "data/resource_types.yaml"
//
// 返回：
//
//	*ResourceTypesConfig - 解析后的配置对象
//	error - 如果文件读取、解析或验证失败，返回错误信息
func LoadResourceTypesConfig(path string) (*ResourceTypesConfig, error) {
	var data []byte
	var err error
	if embedded.IsInitialized() && embedded.Exists(path) {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read resource types config file %s: %w", path, err)
	}

	config, err := ParseResourceTypesConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid resource types config in %s: %w", path, err)
	}
	return config, nil
}

// ParseResourceTypesConfig 解析YAML字节流并验证
// 与文件读取分离，便于对配置内容单独测试
func ParseResourceTypesConfig(data []byte) (*ResourceTypesConfig, error) {
	var config ResourceTypesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse resource types YAML: %w", err)
	}

	// 应用默认值
	applyResourceTypeDefaults(&config)

	// 验证必填字段
	if err := validateResourceTypesConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyResourceTypeDefaults 为缺失的可选字段设置默认值
func applyResourceTypeDefaults(config *ResourceTypesConfig) {
	for i := range config.Resources {
		r := &config.Resources[i]

		// 如果 Name 为空，使用 ID 作为显示名称
		if r.Name == "" {
			r.Name = r.ID
		}

		// 如果 Sheet 为空，使用 palette 名作为精灵表名
		if r.Sheet == "" {
			r.Sheet = r.Palette
		}

		// 如果 Blend 为空，使用普通透明混合
		if r.Blend == "" {
			r.Blend = BlendAlpha
		}
	}
}

// validateResourceTypesConfig 验证资源类型配置的完整性和合法性
func validateResourceTypesConfig(config *ResourceTypesConfig) error {
	// 验证地形集
	if config.Tileset.Name == "" {
		return fmt.Errorf("tileset name is required")
	}
	if len(config.Tileset.Terrains) == 0 {
		return fmt.Errorf("at least one terrain type is required")
	}

	terrainTypes := make(map[string]bool)
	terrainIndices := make(map[uint8]bool)
	for i, terrain := range config.Tileset.Terrains {
		if terrain.Type == "" {
			return fmt.Errorf("terrain %d: type is required", i)
		}
		if terrainTypes[terrain.Type] {
			return fmt.Errorf("terrain %d: duplicate terrain type %q", i, terrain.Type)
		}
		terrainTypes[terrain.Type] = true

		// 0xFF 保留为"无地形覆盖"哨兵值
		if terrain.Index == types.NoTerrain {
			return fmt.Errorf("terrain %q: index %d is reserved", terrain.Type, types.NoTerrain)
		}
		if terrainIndices[terrain.Index] {
			return fmt.Errorf("terrain %q: duplicate terrain index %d", terrain.Type, terrain.Index)
		}
		terrainIndices[terrain.Index] = true
	}

	// 验证资源类型
	if len(config.Resources) == 0 {
		return fmt.Errorf("at least one resource type is required")
	}

	ids := make(map[string]bool)
	indices := make(map[uint8]bool)
	for i, r := range config.Resources {
		if r.ID == "" {
			return fmt.Errorf("resource %d: id is required", i)
		}
		if ids[r.ID] {
			return fmt.Errorf("resource %d: duplicate resource id %q", i, r.ID)
		}
		ids[r.ID] = true

		// 类型字节 0 表示"无资源"，不可被声明占用
		if r.Index == 0 {
			return fmt.Errorf("resource %q: index must be at least 1", r.ID)
		}
		if indices[r.Index] {
			return fmt.Errorf("resource %q: duplicate resource index %d", r.ID, r.Index)
		}
		indices[r.Index] = true

		if r.TerrainType == "" {
			return fmt.Errorf("resource %q: terrainType is required", r.ID)
		}
		if !terrainTypes[r.TerrainType] {
			return fmt.Errorf("resource %q: terrainType %q is not declared in tileset %q", r.ID, r.TerrainType, config.Tileset.Name)
		}

		if r.ValuePerUnit < 0 {
			return fmt.Errorf("resource %q: valuePerUnit cannot be negative, got %d", r.ID, r.ValuePerUnit)
		}
		if r.MaxDensity < 1 {
			return fmt.Errorf("resource %q: maxDensity must be at least 1, got %d", r.ID, r.MaxDensity)
		}

		if r.Palette == "" {
			return fmt.Errorf("resource %q: palette is required", r.ID)
		}
		if r.Blend != BlendAlpha && r.Blend != BlendAdditive {
			return fmt.Errorf("resource %q: blend must be one of: %s, %s, got %q", r.ID, BlendAlpha, BlendAdditive, r.Blend)
		}
		if _, err := ParseHexColor(r.Color); err != nil {
			return fmt.Errorf("resource %q: %w", r.ID, err)
		}

		if len(r.Variants) == 0 {
			return fmt.Errorf("resource %q: at least one variant is required", r.ID)
		}
		variantNames := make(map[string]bool)
		for j, v := range r.Variants {
			if v.Name == "" {
				return fmt.Errorf("resource %q, variant %d: name is required", r.ID, j)
			}
			if variantNames[v.Name] {
				return fmt.Errorf("resource %q: duplicate variant name %q", r.ID, v.Name)
			}
			variantNames[v.Name] = true

			if v.Frames < 1 {
				return fmt.Errorf("resource %q, variant %q: frames must be at least 1, got %d", r.ID, v.Name, v.Frames)
			}
		}
	}

	return nil
}

// ParseHexColor 解析 "#rrggbb" 格式的颜色文本
// 返回不透明的 RGBA 颜色
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color must be in #rrggbb format, got %q", s)
	}

	value, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color must be in #rrggbb format, got %q", s)
	}

	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xFF,
	}, nil
}
