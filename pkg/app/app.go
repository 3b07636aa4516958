// Package app 提供编辑器应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来：加载资源类型配置、生成精灵表、
// 准备地图与资源图层，并把编辑循环组装成 ebiten.Game 实现。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/editor"
	"github.com/nero3327/oredit/pkg/types"
	"github.com/nero3327/oredit/pkg/utils"
	"github.com/nero3327/oredit/pkg/world"
)

// resourceTypesPath 资源类型配置在嵌入资源中的路径
const resourceTypesPath = "data/resource_types.yaml"

// defaultMapPath 未指定地图文档时 Ctrl+S 的保存位置
const defaultMapPath = "maps/untitled.yaml"

// 界面用色
var (
	backgroundColor = color.RGBA{R: 24, G: 26, B: 24, A: 255}
	groundColor     = color.RGBA{R: 46, G: 52, B: 44, A: 255}
	gridColor       = color.RGBA{A: 56}
	hudColor        = color.RGBA{R: 16, G: 16, B: 16, A: 255}
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// MapPath 指定要打开的地图文档，为空则按 Seed 生成新地图
	MapPath string
	// Seed 生成新地图时使用的随机种子
	Seed int64
}

// App 是编辑器应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	gameMap  *world.Map
	registry *world.ResourceRegistry
	layer    *editor.ResourceLayer
	state    *editor.EditorState
	settings *editor.SettingsManager
	cursor   *editor.CursorAnim

	// terrainTints 地形索引到底色的映射，取自资源类型配置的基准色
	terrainTints map[uint8]color.RGBA

	hoverCell  types.CPos
	hoverValid bool
	mapPath    string
	mapTitle   string
	verbose    bool
}

// NewApp 创建并初始化编辑器应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// 打开本地数据目录，失败时降级为默认设置
	gdataManager, err := gdata.Open(gdata.Config{AppName: "oredit"})
	if err != nil {
		log.Printf("[App] Warning: failed to open gdata storage: %v", err)
		gdataManager = nil
	}
	settingsManager, err := editor.NewSettingsManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("设置管理器初始化失败: %w", err)
	}

	// 持久化设置里开启的详细日志同样生效
	if !cfg.Verbose && settingsManager.GetSettings().VerboseLog {
		log.SetOutput(os.Stderr)
	}

	// 加载资源类型配置
	typesConfig, err := config.LoadResourceTypesConfig(resourceTypesPath)
	if err != nil {
		return nil, fmt.Errorf("资源类型配置加载失败: %w", err)
	}
	log.Printf("[App] Loaded %d resource types, tileset %q", len(typesConfig.Resources), typesConfig.Tileset.Name)

	// 规划并生成精灵表，收集全部帧序列
	plans, err := sprite.PlanSheets(typesConfig)
	if err != nil {
		return nil, fmt.Errorf("精灵表规划失败: %w", err)
	}
	sequences := make(map[string]map[string]*sprite.Sequence)
	for i := range plans {
		sheet := plans[i].Materialize()
		for typeID, variants := range plans[i].Sequences(sheet) {
			if sequences[typeID] == nil {
				sequences[typeID] = make(map[string]*sprite.Sequence)
			}
			for name, seq := range variants {
				sequences[typeID][name] = seq
			}
		}
	}
	log.Printf("[App] Materialized %d sprite sheets", len(plans))

	// 组装资源注册表
	registry, err := world.BuildRegistry(typesConfig, sequences)
	if err != nil {
		return nil, fmt.Errorf("资源注册表构建失败: %w", err)
	}

	// 打开地图文档，或者按种子生成新地图
	var gameMap *world.Map
	mapTitle := "Untitled"
	if cfg.MapPath != "" {
		doc, err := world.LoadMapDocument(cfg.MapPath)
		if err != nil {
			return nil, fmt.Errorf("地图文档加载失败: %w", err)
		}
		gameMap = doc.BuildMap()
		mapTitle = doc.Title
		settingsManager.SetLastMap(cfg.MapPath)
		log.Printf("[App] Opened map %q (%dx%d)", doc.Title, doc.Width, doc.Height)
	} else {
		gameMap = world.Generate(world.DefaultGenConfig(cfg.Seed), registry)
		log.Printf("[App] Generated %dx%d map with seed %d", gameMap.Width(), gameMap.Height(), cfg.Seed)
	}

	// 创建资源图层，开始跟踪地图变化
	layer, err := editor.NewResourceLayer(gameMap, registry, nil)
	if err != nil {
		return nil, fmt.Errorf("资源图层初始化失败: %w", err)
	}

	// 会话状态从持久化设置恢复
	state := editor.NewEditorState()
	state.GridOverlay = settingsManager.GetSettings().GridOverlay
	state.ShowNetWorth = settingsManager.GetSettings().ShowNetWorth

	// 地形底色：资源基准色压暗一半，和精灵区分开
	terrainTints := make(map[uint8]color.RGBA)
	for _, r := range typesConfig.Resources {
		idx, ok := registry.Tileset().TerrainIndex(r.TerrainType)
		if !ok {
			continue
		}
		tint, _ := config.ParseHexColor(r.Color)
		tint.R /= 2
		tint.G /= 2
		tint.B /= 2
		terrainTints[idx] = tint
	}

	return &App{
		gameMap:      gameMap,
		registry:     registry,
		layer:        layer,
		state:        state,
		settings:     settingsManager,
		cursor:       editor.NewCursorAnim(config.CursorPulseFrames),
		terrainTints: terrainTints,
		mapPath:      cfg.MapPath,
		mapTitle:     mapTitle,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新编辑器逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	const deltaTime = 1.0 / 60.0

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	// Ctrl+Q 退出，RunGame 返回后由 main 统一清理
	if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	a.handleCamera(deltaTime)
	a.handleBrushKeys()
	a.handlePainting()

	a.cursor.Tick()
	return nil
}

// handleCamera 方向键平移相机
func (a *App) handleCamera(deltaTime float64) {
	pan := config.CameraPanSpeed * deltaTime
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		a.state.CameraX -= pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		a.state.CameraX += pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		a.state.CameraY -= pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		a.state.CameraY += pan
	}
	a.state.CameraX, a.state.CameraY = utils.ClampCamera(
		a.state.CameraX, a.state.CameraY, a.gameMap.Width(), a.gameMap.Height())
}

// handleBrushKeys 处理笔刷选择和界面开关
func (a *App) handleBrushKeys() {
	count := len(a.registry.Types())

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		a.state.NextBrush(count)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		a.state.SelectBrush(editor.Eraser, count)
	}
	// 数字键 1-9 直接选择对应资源
	for i := 0; i < count && i < 9; i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key(int(ebiten.KeyDigit1) + i)) {
			a.state.SelectBrush(i, count)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		enabled := a.state.ToggleGrid()
		a.settings.SetGridOverlay(enabled)
		if err := a.settings.Save(); err != nil {
			log.Printf("[App] Warning: failed to save settings: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		enabled := a.state.ToggleNetWorth()
		a.settings.SetShowNetWorth(enabled)
		if err := a.settings.Save(); err != nil {
			log.Printf("[App] Warning: failed to save settings: %v", err)
		}
	}

	// Ctrl+S 保存地图文档
	if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.saveMap()
	}
}

// handlePainting 跟踪悬停单元格并处理笔刷落子
func (a *App) handlePainting() {
	mouseX, mouseY := ebiten.CursorPosition()
	cell, ok := utils.MouseToCell(mouseX, mouseY,
		a.state.CameraX, a.state.CameraY, a.gameMap.Width(), a.gameMap.Height())

	a.cursor.Moving = ok && (!a.hoverValid || cell != a.hoverCell)
	a.hoverCell, a.hoverValid = cell, ok
	if !ok {
		return
	}

	var desired types.ResourceTile
	paint := false
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if a.state.SelectedBrush == editor.Eraser {
			paint = true
		} else if rt := a.brushType(); rt != nil {
			desired = types.ResourceTile{Type: rt.Index}
			paint = true
		}
	} else if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		// 右键始终是擦除
		paint = true
	}

	// 写入前去重，按住拖动时同一格不重复触发更新
	if paint && a.gameMap.ResourceAt(cell) != desired {
		a.gameMap.SetResource(cell, desired)
	}
}

// brushType 返回当前笔刷对应的资源类型，橡皮擦返回 nil
func (a *App) brushType() *world.ResourceType {
	resTypes := a.registry.Types()
	if a.state.SelectedBrush < 0 || a.state.SelectedBrush >= len(resTypes) {
		return nil
	}
	return resTypes[a.state.SelectedBrush]
}

// saveMap 把当前地图写出为文档，并记录为最近打开的地图
func (a *App) saveMap() {
	path := a.mapPath
	if path == "" {
		path = defaultMapPath
	}

	doc := world.NewDocumentFromMap(a.gameMap, a.mapTitle)
	if err := doc.Save(path); err != nil {
		log.Printf("[App] Failed to save map to %s: %v", path, err)
		return
	}

	a.mapPath = path
	a.settings.SetLastMap(path)
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}
	log.Printf("[App] Saved map to %s", path)
}

// Draw 绘制编辑器画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	a.drawTerrain(screen)
	if a.state.GridOverlay {
		a.drawGrid(screen)
	}
	a.layer.Draw(screen, a.state.CameraX, a.state.CameraY)
	a.drawCursor(screen)
	a.drawHUD(screen)
}

// visibleCells 返回当前视口覆盖的单元格范围（闭区间）
func (a *App) visibleCells() (minX, minY, maxX, maxY int) {
	minX = int(a.state.CameraX) / config.CellSize
	minY = int(a.state.CameraY) / config.CellSize
	maxX = (int(a.state.CameraX) + config.ScreenWidth) / config.CellSize
	maxY = (int(a.state.CameraY) + config.ScreenHeight - config.HUDBarHeight) / config.CellSize
	if maxX >= a.gameMap.Width() {
		maxX = a.gameMap.Width() - 1
	}
	if maxY >= a.gameMap.Height() {
		maxY = a.gameMap.Height() - 1
	}
	return minX, minY, maxX, maxY
}

// drawTerrain 绘制地图底色和资源单元格的地形覆盖色
func (a *App) drawTerrain(screen *ebiten.Image) {
	minX, minY, maxX, maxY := a.visibleCells()

	originX, originY := utils.CellToScreen(types.CPos{X: minX, Y: minY}, a.state.CameraX, a.state.CameraY)
	widthPx := float32((maxX - minX + 1) * config.CellSize)
	heightPx := float32((maxY - minY + 1) * config.CellSize)
	vector.DrawFilledRect(screen, float32(originX), float32(originY), widthPx, heightPx, groundColor, false)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cell := types.CPos{X: x, Y: y}
			terrain := a.gameMap.CustomTerrainAt(cell)
			if terrain == types.NoTerrain {
				continue
			}
			tint, ok := a.terrainTints[terrain]
			if !ok {
				continue
			}
			sx, sy := utils.CellToScreen(cell, a.state.CameraX, a.state.CameraY)
			vector.DrawFilledRect(screen, float32(sx), float32(sy), config.CellSize, config.CellSize, tint, false)
		}
	}
}

// drawGrid 绘制单元格网格线
func (a *App) drawGrid(screen *ebiten.Image) {
	minX, minY, maxX, maxY := a.visibleCells()

	left, top := utils.CellToScreen(types.CPos{X: minX, Y: minY}, a.state.CameraX, a.state.CameraY)
	right, bottom := utils.CellToScreen(types.CPos{X: maxX + 1, Y: maxY + 1}, a.state.CameraX, a.state.CameraY)
	if top < config.HUDBarHeight {
		top = config.HUDBarHeight
	}
	if left < 0 {
		left = 0
	}

	for x := minX; x <= maxX+1; x++ {
		sx, _ := utils.CellToScreen(types.CPos{X: x, Y: 0}, a.state.CameraX, a.state.CameraY)
		if sx < 0 {
			continue
		}
		vector.StrokeLine(screen, float32(sx), float32(top), float32(sx), float32(bottom), 1, gridColor, false)
	}
	for y := minY; y <= maxY+1; y++ {
		_, sy := utils.CellToScreen(types.CPos{X: 0, Y: y}, a.state.CameraX, a.state.CameraY)
		if sy < float64(config.HUDBarHeight) {
			continue
		}
		vector.StrokeLine(screen, float32(left), float32(sy), float32(right), float32(sy), 1, gridColor, false)
	}
}

// drawCursor 绘制悬停单元格的脉冲高亮
func (a *App) drawCursor(screen *ebiten.Image) {
	if !a.hoverValid {
		return
	}

	// 缓动三角波脉冲，光标静止时停在当前亮度
	pulse := utils.EaseInOutCubic(utils.Triangle(a.cursor.Phase()))
	v := uint8((0.2 + 0.3*pulse) * 255)

	sx, sy := utils.CellToScreen(a.hoverCell, a.state.CameraX, a.state.CameraY)
	vector.DrawFilledRect(screen, float32(sx), float32(sy),
		config.CellSize, config.CellSize, color.RGBA{R: v, G: v, B: v, A: v}, false)
}

// drawHUD 绘制顶部信息栏：笔刷、悬停单元格和资源总价值
func (a *App) drawHUD(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, config.ScreenWidth, config.HUDBarHeight, hudColor, false)

	brushName := "Eraser"
	if rt := a.brushType(); rt != nil {
		brushName = rt.Name
	}
	status := fmt.Sprintf("Brush: %s", brushName)
	if a.hoverValid {
		status += fmt.Sprintf("  Cell: %v", a.hoverCell)
		if t := a.layer.Contents(a.hoverCell); t.Type != nil {
			status += fmt.Sprintf("  %s density %d", t.Type.Name, t.Density)
		}
	}
	ebitenutil.DebugPrintAt(screen, status, 8, 4)

	if a.state.ShowNetWorth {
		worth := fmt.Sprintf("Net worth: $%s", humanize.Comma(int64(a.layer.NetWorth())))
		ebitenutil.DebugPrintAt(screen, worth, config.ScreenWidth-200, 4)
	}
}

// Layout 返回编辑器的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.ScreenWidth, config.ScreenHeight
}

// Dispose 释放资源图层并保存设置
// 编辑循环退出后由 main 调用
func (a *App) Dispose() {
	a.layer.Dispose()
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
