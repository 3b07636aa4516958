package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/types"
)

// GenConfig 程序化地图生成参数
type GenConfig struct {
	Width  int // 地图宽度（单元格数）
	Height int // 地图高度（单元格数）

	// Seed 噪声种子，相同种子生成完全相同的地图
	Seed int64

	// SeamThreshold 矿脉噪声阈值，取值范围 [0,1]
	// 噪声值高于该阈值的单元格放置资源，越高矿脉越稀疏
	SeamThreshold float64

	// RareSplit 稀有资源噪声阈值，取值范围 [0,1]
	// 矿脉内第二层噪声高于该阈值的单元格改放稀有资源
	RareSplit float64
}

// DefaultGenConfig 返回演示地图的默认生成参数
func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{
		Width:         config.DefaultMapWidth,
		Height:        config.DefaultMapHeight,
		Seed:          seed,
		SeamThreshold: 0.62,
		RareSplit:     0.78,
	}
}

// 噪声采样的坐标缩放，控制矿脉的平均尺寸
const (
	seamNoiseScale = 1.0 / 16.0
	rareNoiseScale = 1.0 / 9.0
)

// Generate 用分层噪声生成带资源矿脉的地图
// 注册表中第一种声明的资源作为常见矿脉，第二种（如有）作为稀有矿脉
// 生成只写入原始资源数据，密度和价值由资源图层在激活扫描时计算
func Generate(cfg GenConfig, registry *ResourceRegistry) *Map {
	m := NewMap(cfg.Width, cfg.Height)

	resTypes := registry.Types()
	if len(resTypes) == 0 {
		return m
	}
	common := resTypes[0]
	rare := common
	if len(resTypes) > 1 {
		rare = resTypes[1]
	}

	seamNoise := opensimplex.NewNormalized(cfg.Seed)
	rareNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)
			if seamNoise.Eval2(fx*seamNoiseScale, fy*seamNoiseScale) <= cfg.SeamThreshold {
				continue
			}

			rt := common
			if rareNoise.Eval2(fx*rareNoiseScale, fy*rareNoiseScale) > cfg.RareSplit {
				rt = rare
			}
			m.SetResource(types.CPos{X: x, Y: y}, types.ResourceTile{Type: rt.Index})
		}
	}
	return m
}
