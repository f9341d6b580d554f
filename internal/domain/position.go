package domain

import (
	"fmt"
	"math"
)

// Границы мира
const (
	MinCoord = 0
	MaxCoord = 9999
	MinZ     = 0
	MaxZ     = 15
)

// Position - точка в мире. Значение неизменяемо: все методы возвращают новую позицию.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// NewPosition создает позицию и проверяет границы мира.
func NewPosition(x, y, z int) (Position, error) {
	p := Position{X: x, Y: y, Z: z}
	if !p.InBounds() {
		return Position{}, &ValidationError{
			Field:  "position",
			Reason: fmt.Sprintf("%s is outside world bounds", p),
		}
	}
	return p, nil
}

// InBounds reports whether the position lies inside 0..9999 on x/y and 0..15 on z.
func (p Position) InBounds() bool {
	return p.X >= MinCoord && p.X <= MaxCoord &&
		p.Y >= MinCoord && p.Y <= MaxCoord &&
		p.Z >= MinZ && p.Z <= MaxZ
}

func (p Position) Equal(other Position) bool {
	return p.X == other.X && p.Y == other.Y && p.Z == other.Z
}

// DistanceTo возвращает точное евклидово расстояние в 3D
func (p Position) DistanceTo(other Position) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	dz := float64(p.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// PlanarDistanceSquaredTo возвращает квадрат расстояния по (x,y) для сравнения без корней
func (p Position) PlanarDistanceSquaredTo(other Position) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// ManhattanDistanceTo - сумма модулей смещений по всем осям
func (p Position) ManhattanDistanceTo(other Position) int {
	return abs(p.X-other.X) + abs(p.Y-other.Y) + abs(p.Z-other.Z)
}

// WithinRadius reports same-z planar containment: squared distance <= radius².
func (p Position) WithinRadius(center Position, radius float64) bool {
	if p.Z != center.Z {
		return false
	}
	return float64(p.PlanarDistanceSquaredTo(center)) <= radius*radius
}

// Shift возвращает новую позицию со смещением (без проверки границ)
func (p Position) Shift(dx, dy, dz int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Key - строковый ключ для map-индексов
func (p Position) Key() string {
	return fmt.Sprintf("%d:%d:%d", p.X, p.Y, p.Z)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
