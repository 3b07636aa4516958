package world

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nero3327/oredit/pkg/types"
)

// MapDocument 是地图的磁盘表示
// 资源以稀疏列表保存，空单元格不写入文件
type MapDocument struct {
	UID    string `yaml:"uid"`    // 地图的唯一标识，新建文档时生成
	Title  string `yaml:"title"`  // 地图标题
	Width  int    `yaml:"width"`  // 地图宽度（单元格数）
	Height int    `yaml:"height"` // 地图高度（单元格数）

	Resources []ResourceEntry `yaml:"resources"` // 非空单元格列表，按行优先顺序
}

// ResourceEntry 文档中一个非空单元格的记录
type ResourceEntry struct {
	X     int   `yaml:"x"`
	Y     int   `yaml:"y"`
	Type  uint8 `yaml:"type"`            // 资源类型字节
	Index uint8 `yaml:"index,omitempty"` // 原始变体提示字节，保存与加载时原样保留
}

// NewDocumentFromMap 从地图模型创建文档
// 按行优先顺序收集所有非空单元格，并分配新的唯一标识
func NewDocumentFromMap(m *Map, title string) *MapDocument {
	doc := &MapDocument{
		UID:    uuid.NewString(),
		Title:  title,
		Width:  m.Width(),
		Height: m.Height(),
	}

	for _, c := range m.AllCells() {
		tile := m.ResourceAt(c)
		if tile.Type == 0 {
			continue
		}
		doc.Resources = append(doc.Resources, ResourceEntry{
			X:     c.X,
			Y:     c.Y,
			Type:  tile.Type,
			Index: tile.Index,
		})
	}
	return doc
}

// LoadMapDocument 从YAML文件加载地图文档
// 参数：
//
//	path - 地图文件路径
//
// 返回：
//
//	*MapDocument - 解析后的文档
//	error - 如果文件读取、解析或验证失败，返回错误信息
func LoadMapDocument(path string) (*MapDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file %s: %w", path, err)
	}

	var doc MapDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse map YAML from %s: %w", path, err)
	}

	if err := validateMapDocument(&doc); err != nil {
		return nil, fmt.Errorf("invalid map document in %s: %w", path, err)
	}

	// 旧文件可能没有 uid，加载时补齐
	if doc.UID == "" {
		doc.UID = uuid.NewString()
	}
	return &doc, nil
}

// validateMapDocument 验证地图文档的尺寸和资源条目
func validateMapDocument(doc *MapDocument) error {
	if doc.Width < 1 || doc.Height < 1 {
		return fmt.Errorf("map size must be at least 1x1, got %dx%d", doc.Width, doc.Height)
	}

	for i, entry := range doc.Resources {
		if entry.X < 0 || entry.X >= doc.Width || entry.Y < 0 || entry.Y >= doc.Height {
			return fmt.Errorf("resource entry %d at (%d, %d) is outside the %dx%d map", i, entry.X, entry.Y, doc.Width, doc.Height)
		}
		if entry.Type == 0 {
			return fmt.Errorf("resource entry %d at (%d, %d) has type 0", i, entry.X, entry.Y)
		}
	}
	return nil
}

// Save 将文档序列化为YAML并写入文件
// 目标目录不存在时自动创建
func (d *MapDocument) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create map directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal map document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write map file %s: %w", path, err)
	}
	return nil
}

// Apply 将文档中的资源条目写入地图
// 写入通过 SetResource 进行，订阅者会收到每个条目的通知
func (d *MapDocument) Apply(m *Map) {
	for _, entry := range d.Resources {
		m.SetResource(types.CPos{X: entry.X, Y: entry.Y}, types.ResourceTile{
			Type:  entry.Type,
			Index: entry.Index,
		})
	}
}

// BuildMap 按文档尺寸创建新地图并写入全部资源条目
func (d *MapDocument) BuildMap() *Map {
	m := NewMap(d.Width, d.Height)
	d.Apply(m)
	return m
}
