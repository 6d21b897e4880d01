package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// DefaultCellSize размер ячейки по умолчанию, в мировых единицах
const DefaultCellSize = 64.0

// Index пространственный индекс на равномерной сетке.
// Хранит круги (центр + радиус) и отвечает на запросы пересечения.
// Не потокобезопасен: его перестраивает однопоточная симуляция.
type Index struct {
	cellSize float64
	cells    map[cellKey]map[entity.ID]*indexedEntity
	entities map[entity.ID]*indexedEntity
}

// cellKey ключ ячейки сетки
type cellKey struct {
	x, y int
}

// indexedEntity индексированный круг
type indexedEntity struct {
	id     entity.ID
	pos    vec.Vec2
	radius float64
	cells  []cellKey
}

// bounds осевой прямоугольник
type bounds struct {
	minX, minY float64
	maxX, maxY float64
}

// New создаёт новый пространственный индекс
func New(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[entity.ID]*indexedEntity),
		entities: make(map[entity.ID]*indexedEntity),
	}
}

func circleBounds(pos vec.Vec2, radius float64) bounds {
	return bounds{
		minX: pos.X - radius,
		minY: pos.Y - radius,
		maxX: pos.X + radius,
		maxY: pos.Y + radius,
	}
}

// Insert добавляет круг в индекс; повторная вставка того же ID обновляет его
func (si *Index) Insert(id entity.ID, pos vec.Vec2, radius float64) {
	if _, exists := si.entities[id]; exists {
		si.Update(id, pos, radius)
		return
	}

	indexed := &indexedEntity{id: id, pos: pos, radius: radius}
	indexed.cells = si.cellsForBounds(circleBounds(pos, radius))
	for _, key := range indexed.cells {
		si.cell(key)[id] = indexed
	}
	si.entities[id] = indexed
}

// Update перемещает круг; ячейки пересчитываются только если изменились
func (si *Index) Update(id entity.ID, pos vec.Vec2, radius float64) {
	indexed, exists := si.entities[id]
	if !exists {
		si.Insert(id, pos, radius)
		return
	}

	newCells := si.cellsForBounds(circleBounds(pos, radius))
	if !sameCells(indexed.cells, newCells) {
		si.detach(indexed)
		for _, key := range newCells {
			si.cell(key)[id] = indexed
		}
		indexed.cells = newCells
	}
	indexed.pos = pos
	indexed.radius = radius
}

// Remove удаляет круг из индекса; неизвестный ID игнорируется
func (si *Index) Remove(id entity.ID) {
	indexed, exists := si.entities[id]
	if !exists {
		return
	}
	delete(si.entities, id)
	si.detach(indexed)
}

// Clear очищает индекс, сохраняя размер ячейки
func (si *Index) Clear() {
	si.cells = make(map[cellKey]map[entity.ID]*indexedEntity, len(si.cells))
	si.entities = make(map[entity.ID]*indexedEntity, len(si.entities))
}

// QueryRange возвращает ID кругов, пересекающих окружность (center, radius),
// в порядке возрастания ID
func (si *Index) QueryRange(center vec.Vec2, radius float64) []entity.ID {
	result := make([]entity.ID, 0, 8)
	seen := make(map[entity.ID]struct{})

	for _, key := range si.cellsForBounds(circleBounds(center, radius)) {
		for id, indexed := range si.cells[key] {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			reach := radius + indexed.radius
			if indexed.pos.DistanceSqTo(center) <= reach*reach {
				result = append(result, id)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// QueryRect возвращает ID кругов, центр которых лежит в прямоугольнике
func (si *Index) QueryRect(min, max vec.Vec2) []entity.ID {
	result := make([]entity.ID, 0, 8)
	seen := make(map[entity.ID]struct{})

	for _, key := range si.cellsForBounds(bounds{minX: min.X, minY: min.Y, maxX: max.X, maxY: max.Y}) {
		for id, indexed := range si.cells[key] {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			if indexed.pos.X >= min.X && indexed.pos.X <= max.X &&
				indexed.pos.Y >= min.Y && indexed.pos.Y <= max.Y {
				result = append(result, id)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Position возвращает сохранённый круг
func (si *Index) Position(id entity.ID) (vec.Vec2, float64, bool) {
	indexed, ok := si.entities[id]
	if !ok {
		return vec.Zero, 0, false
	}
	return indexed.pos, indexed.radius, true
}

// Len количество индексированных кругов
func (si *Index) Len() int {
	return len(si.entities)
}

// CellCount количество непустых ячеек
func (si *Index) CellCount() int {
	return len(si.cells)
}

// Stats возвращает статистику индекса
func (si *Index) Stats() string {
	total, maxPerCell := 0, 0
	for _, cell := range si.cells {
		total += len(cell)
		if len(cell) > maxPerCell {
			maxPerCell = len(cell)
		}
	}
	avg := 0.0
	if len(si.cells) > 0 {
		avg = float64(total) / float64(len(si.cells))
	}
	return fmt.Sprintf("SpatialIndex Stats: %d entities, %d cells, avg %.2f entities/cell, max %d entities/cell",
		len(si.entities), len(si.cells), avg, maxPerCell)
}

// Вспомогательные методы

func (si *Index) detach(indexed *indexedEntity) {
	for _, key := range indexed.cells {
		if cell, exists := si.cells[key]; exists {
			delete(cell, indexed.id)
			if len(cell) == 0 {
				delete(si.cells, key)
			}
		}
	}
}

// cellsForBounds возвращает ключи ячеек, которые пересекаются с границами
func (si *Index) cellsForBounds(b bounds) []cellKey {
	minCellX := int(math.Floor(b.minX / si.cellSize))
	minCellY := int(math.Floor(b.minY / si.cellSize))
	maxCellX := int(math.Floor(b.maxX / si.cellSize))
	maxCellY := int(math.Floor(b.maxY / si.cellSize))

	cells := make([]cellKey, 0, (maxCellX-minCellX+1)*(maxCellY-minCellY+1))
	for x := minCellX; x <= maxCellX; x++ {
		for y := minCellY; y <= maxCellY; y++ {
			cells = append(cells, cellKey{x: x, y: y})
		}
	}
	return cells
}

// cell возвращает ячейку или создаёт новую
func (si *Index) cell(key cellKey) map[entity.ID]*indexedEntity {
	cell, exists := si.cells[key]
	if !exists {
		cell = make(map[entity.ID]*indexedEntity)
		si.cells[key] = cell
	}
	return cell
}

func sameCells(a, b []cellKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
