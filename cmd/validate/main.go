// cmd/validate/main.go
// 配置校验工具 - 检查资源类型配置和地图文档能否被编辑器加载
//
// 用法：
//   go run cmd/validate/main.go [-types data/resource_types.yaml] [maps/a.yaml ...]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/world"
)

var typesFlag = flag.String("types", "data/resource_types.yaml", "资源类型配置路径")

func main() {
	flag.Parse()

	typesConfig, err := config.LoadResourceTypesConfig(*typesFlag)
	if err != nil {
		fmt.Printf("❌ 资源类型配置无效: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 资源类型配置有效: tileset %q，%d 种资源\n",
		typesConfig.Tileset.Name, len(typesConfig.Resources))

	// 已声明的资源类型字节，用于检查地图文档的引用
	declared := make(map[uint8]string)
	for _, r := range typesConfig.Resources {
		declared[r.Index] = r.ID
	}

	failed := false
	for _, path := range flag.Args() {
		doc, err := world.LoadMapDocument(path)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed = true
			continue
		}

		unknown := 0
		for _, entry := range doc.Resources {
			if _, ok := declared[entry.Type]; !ok {
				unknown++
			}
		}
		if unknown > 0 {
			fmt.Printf("❌ %s: %d 个单元格引用了未声明的资源类型\n", path, unknown)
			failed = true
			continue
		}
		fmt.Printf("✅ %s: %q %dx%d，%d 个资源单元格\n",
			path, doc.Title, doc.Width, doc.Height, len(doc.Resources))
	}

	if failed {
		os.Exit(1)
	}
}
