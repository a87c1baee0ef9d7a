package server

import "math"

// Rect 轴对齐矩形（像素坐标）
type Rect struct {
	X, Y, W, H float64
}

// rectsOverlap 判断两个矩形是否重叠
// 四边均取严格不等号：零面积的“贴边”不算重叠
func rectsOverlap(a, b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X && a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// tileOf 像素坐标落在哪一格（向下取整，负数也正确）
func tileOf(v float64) int {
	return int(math.Floor(v / TileSize))
}

// clamp 把 v 收回 [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isSolid 判断格子是否为实心障碍
// 越界一律视为实心（地图边界即围墙）
func isSolid(grid [][]int, col, row int) bool {
	if col < 0 || col >= Cols || row < 0 || row >= Rows {
		return true
	}
	return grid[row][col] == tileCoral
}
