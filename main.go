package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/pkg/app"
	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/embedded"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
	mapFlag     = flag.String("map", "", "Map document to open (e.g. maps/canyon.yaml)")
	seedFlag    = flag.Int64("seed", 0, "Seed for generating a new map when -map is not given")
)

func main() {
	flag.Parse()

	// 初始化嵌入资源
	// dataFS 在 embed.go 中声明
	embedded.Init(dataFS)

	editorApp, err := app.NewApp(app.Config{
		Verbose: *verboseFlag,
		MapPath: *mapFlag,
		Seed:    *seedFlag,
	})
	if err != nil {
		log.Fatalf("编辑器初始化失败: %v", err)
	}

	// Set window properties
	ebiten.SetWindowSize(config.ScreenWidth, config.ScreenHeight)
	ebiten.SetWindowTitle("矿层编辑器 - Ore Layer Editor")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// Start the editor loop
	// This will call Update() and Draw() repeatedly until the window is closed
	if err := ebiten.RunGame(editorApp); err != nil {
		log.Fatal(err)
	}

	// 退出后释放图层并保存设置
	editorApp.Dispose()
}
