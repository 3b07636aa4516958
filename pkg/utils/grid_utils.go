// Package utils 提供通用工具函数
package utils

import (
	"math"

	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/types"
)

// MouseToCell 将鼠标屏幕坐标转换为地图单元格坐标
// 地图视口从信息栏下缘开始，相机坐标为视口左上角对应的世界像素
// 参数:
//   - mouseX, mouseY: 鼠标的屏幕坐标
//   - camX, camY: 相机位置（世界像素）
//   - mapWidth, mapHeight: 地图尺寸（单元格数）
//
// 返回:
//   - cell: 单元格坐标
//   - isValid: 是否落在地图范围内（信息栏内和地图外均为 false）
func MouseToCell(mouseX, mouseY int, camX, camY float64, mapWidth, mapHeight int) (cell types.CPos, isValid bool) {
	// 信息栏占据视口顶部，不属于地图
	if mouseY < config.HUDBarHeight {
		return types.CPos{}, false
	}

	worldX := float64(mouseX) + camX
	worldY := float64(mouseY) - config.HUDBarHeight + camY
	if worldX < 0 || worldY < 0 {
		return types.CPos{}, false
	}

	cell = types.CPos{
		X: int(math.Floor(worldX / config.CellSize)),
		Y: int(math.Floor(worldY / config.CellSize)),
	}
	if cell.X >= mapWidth || cell.Y >= mapHeight {
		return types.CPos{}, false
	}
	return cell, true
}

// CellToScreen 将单元格坐标转换为屏幕像素坐标（单元格左上角）
// 参数:
//   - cell: 单元格坐标
//   - camX, camY: 相机位置（世界像素）
//
// 返回:
//   - screenX, screenY: 单元格左上角的屏幕坐标
func CellToScreen(cell types.CPos, camX, camY float64) (screenX, screenY float64) {
	screenX = float64(cell.X)*config.CellSize - camX
	screenY = float64(cell.Y)*config.CellSize - camY + config.HUDBarHeight
	return screenX, screenY
}

// ClampCamera 把相机位置限制在地图范围内
// 地图小于视口时相机固定在 0
func ClampCamera(camX, camY float64, mapWidth, mapHeight int) (float64, float64) {
	maxX := float64(mapWidth*config.CellSize - config.ScreenWidth)
	maxY := float64(mapHeight*config.CellSize - (config.ScreenHeight - config.HUDBarHeight))

	camX = math.Min(camX, maxX)
	camY = math.Min(camY, maxY)
	if camX < 0 {
		camX = 0
	}
	if camY < 0 {
		camY = 0
	}
	return camX, camY
}
