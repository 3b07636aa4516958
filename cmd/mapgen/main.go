// cmd/mapgen/main.go
// 地图生成工具 - 不依赖图形环境，批量生成可在编辑器中打开的地图文档
//
// 用法：
//   go run cmd/mapgen/main.go -width 96 -height 64 -seed 42 -o maps/canyon.yaml
package main

import (
	"flag"
	"log"

	"github.com/dustin/go-humanize"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/editor"
	"github.com/nero3327/oredit/pkg/world"
)

var (
	widthFlag  = flag.Int("width", config.DefaultMapWidth, "地图宽度（单元格数）")
	heightFlag = flag.Int("height", config.DefaultMapHeight, "地图高度（单元格数）")
	seedFlag   = flag.Int64("seed", 0, "噪声种子，相同种子生成相同地图")
	outFlag    = flag.String("o", "maps/generated.yaml", "输出文档路径")
	titleFlag  = flag.String("title", "Generated", "地图标题")
	typesFlag  = flag.String("types", "data/resource_types.yaml", "资源类型配置路径")
)

func main() {
	flag.Parse()

	// 此工具不嵌入资源，配置直接从磁盘读取
	typesConfig, err := config.LoadResourceTypesConfig(*typesFlag)
	if err != nil {
		log.Fatalf("[MapGen] 资源类型配置加载失败: %v", err)
	}

	// 无图形环境：用空精灵表组装注册表，帧序列只保留布局信息
	plans, err := sprite.PlanSheets(typesConfig)
	if err != nil {
		log.Fatalf("[MapGen] 精灵表规划失败: %v", err)
	}
	sequences := make(map[string]map[string]*sprite.Sequence)
	for i := range plans {
		sheet := plans[i].EmptySheet()
		for typeID, variants := range plans[i].Sequences(sheet) {
			if sequences[typeID] == nil {
				sequences[typeID] = make(map[string]*sprite.Sequence)
			}
			for name, seq := range variants {
				sequences[typeID][name] = seq
			}
		}
	}

	registry, err := world.BuildRegistry(typesConfig, sequences)
	if err != nil {
		log.Fatalf("[MapGen] 资源注册表构建失败: %v", err)
	}

	genConfig := world.DefaultGenConfig(*seedFlag)
	genConfig.Width = *widthFlag
	genConfig.Height = *heightFlag

	log.Printf("[MapGen] Generating %dx%d map with seed %d", genConfig.Width, genConfig.Height, *seedFlag)
	gameMap := world.Generate(genConfig, registry)

	// 统计每种资源的单元格数
	counts := make(map[uint8]int)
	for _, c := range gameMap.AllCells() {
		if tile := gameMap.ResourceAt(c); tile.Type != 0 {
			counts[tile.Type]++
		}
	}
	for _, rt := range registry.Types() {
		log.Printf("[MapGen] %s: %s cells", rt.Name, humanize.Comma(int64(counts[rt.Index])))
	}

	// 资源图层结算一遍，报告地图总价值
	layer, err := editor.NewResourceLayer(gameMap, registry, nil)
	if err != nil {
		log.Fatalf("[MapGen] 资源图层初始化失败: %v", err)
	}
	layer.Reconcile()
	log.Printf("[MapGen] Net worth: $%s", humanize.Comma(int64(layer.NetWorth())))
	layer.Dispose()

	doc := world.NewDocumentFromMap(gameMap, *titleFlag)
	if err := doc.Save(*outFlag); err != nil {
		log.Fatalf("[MapGen] 地图文档保存失败: %v", err)
	}
	log.Printf("[MapGen] Saved %q to %s (uid %s)", doc.Title, *outFlag, doc.UID)
}
