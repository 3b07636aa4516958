package editor

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nero3327/oredit/internal/sprite"
	"github.com/nero3327/oredit/pkg/config"
	"github.com/nero3327/oredit/pkg/types"
	"github.com/nero3327/oredit/pkg/utils"
	"github.com/nero3327/oredit/pkg/world"
)

// batchEntry 批次中一个单元格的绘制记录
type batchEntry struct {
	seq   *sprite.Sequence
	frame int
}

// SpriteBatch 一个 palette 的渲染批次
// 批次内所有帧共享同一张精灵表和同一种混合模式，
// 该约束在构建批次时验证，绘制路径不再检查
type SpriteBatch struct {
	palette string
	sheet   *sprite.Sheet
	blend   ebiten.Blend

	entries map[types.CPos]batchEntry
}

func newSpriteBatch(palette string, sheet *sprite.Sheet, blend ebiten.Blend) *SpriteBatch {
	return &SpriteBatch{
		palette: palette,
		sheet:   sheet,
		blend:   blend,
		entries: make(map[types.CPos]batchEntry),
	}
}

// Palette 返回批次键
func (b *SpriteBatch) Palette() string {
	return b.palette
}

// Len 返回批次当前持有的绘制记录数
func (b *SpriteBatch) Len() int {
	return len(b.entries)
}

// Update 写入或清除一个单元格的绘制记录
// seq 为 nil 时清除
func (b *SpriteBatch) Update(cell types.CPos, seq *sprite.Sequence, frame int) {
	if b.entries == nil {
		return
	}
	if seq == nil {
		delete(b.entries, cell)
		return
	}
	b.entries[cell] = batchEntry{seq: seq, frame: frame}
}

// Draw 把批次的全部绘制记录提交到屏幕
// 相机视野外的单元格直接跳过；未材料化的精灵表（无纹理）不绘制
func (b *SpriteBatch) Draw(screen *ebiten.Image, camX, camY float64) {
	if b.sheet == nil || b.sheet.Image == nil {
		return
	}

	screenW := float64(screen.Bounds().Dx())
	screenH := float64(screen.Bounds().Dy())

	op := &ebiten.DrawImageOptions{}
	op.Blend = b.blend
	for cell, e := range b.entries {
		px, py := utils.CellToScreen(cell, camX, camY)
		if px+config.CellSize < 0 || py+config.CellSize < 0 || px >= screenW || py >= screenH {
			continue
		}

		frame := e.seq.Frames[e.frame]
		op.GeoM.Reset()
		op.GeoM.Translate(px, py)
		screen.DrawImage(frame.Sheet.Image.SubImage(frame.Bounds).(*ebiten.Image), op)
	}
}

// release 释放批次持有的绘制记录，之后的 Update 调用被忽略
func (b *SpriteBatch) release() {
	b.entries = nil
}

// buildSpriteBatches 按 palette 构建渲染批次
// 每个批次以该 palette 首次出现的类型的首个变体首帧确定精灵表和混合模式，
// 之后同一 palette 的任何帧使用不同精灵表或混合模式都会返回错误。
// 批次顺序跟随资源类型的声明顺序
func buildSpriteBatches(registry *world.ResourceRegistry) ([]*SpriteBatch, error) {
	var batches []*SpriteBatch
	byPalette := make(map[string]*SpriteBatch)

	for _, rt := range registry.Types() {
		for _, name := range rt.VariantNames {
			seq := rt.Variants[name]
			for i, frame := range seq.Frames {
				b := byPalette[rt.Palette]
				if b == nil {
					b = newSpriteBatch(rt.Palette, frame.Sheet, frame.Blend)
					byPalette[rt.Palette] = b
					batches = append(batches, b)
					continue
				}

				if frame.Sheet != b.sheet {
					return nil, fmt.Errorf("palette %q cannot mix sprite sheets: resource %q variant %q frame %d uses sheet %q, batch was seeded with sheet %q",
						rt.Palette, rt.ID, name, i, frame.Sheet.Name, b.sheet.Name)
				}
				if frame.Blend != b.blend {
					return nil, fmt.Errorf("palette %q cannot mix blend modes: resource %q variant %q frame %d differs from the batch blend mode",
						rt.Palette, rt.ID, name, i)
				}
			}
		}
	}
	return batches, nil
}
