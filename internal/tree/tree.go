// Package tree собирает представления дерева истории из плоского списка узлов:
// путь от корня (breadcrumbs) и вложенную структуру.
package tree

import (
	"sort"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// Node - узел вложенного представления дерева.
type Node struct {
	*models.Story
	Children []*Node `json:"children"`
	Expanded bool    `json:"is_expanded"`
}

// BuildBreadcrumbs возвращает путь от корня дерева до nodeID.
// Если nodeID нет в nodes, путь пустой. Если родитель отсутствует в наборе,
// возвращается частичный путь, собранный до разрыва.
func BuildBreadcrumbs(nodeID uuid.UUID, nodes []*models.Story) []*models.Story {
	byID := indexByID(nodes)

	path := make([]*models.Story, 0, 4)
	visited := make(map[uuid.UUID]struct{}, len(nodes))
	current, ok := byID[nodeID]
	for ok {
		if _, seen := visited[current.ID]; seen {
			// Цикл в данных, дальше идти некуда
			break
		}
		visited[current.ID] = struct{}{}
		path = append(path, current)

		if current.Level == 0 || current.ParentID == nil {
			break
		}
		current, ok = byID[*current.ParentID]
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// BuildTree вкладывает узлы под родителей. Корнями становятся узлы с level == 0.
// Развернуты по умолчанию текущий узел и узлы первых двух уровней.
// Узлы, родитель которых отсутствует в наборе, в результат не попадают.
func BuildTree(nodes []*models.Story, currentID uuid.UUID) []*Node {
	wrapped := make(map[uuid.UUID]*Node, len(nodes))
	for _, s := range nodes {
		if s == nil {
			continue
		}
		wrapped[s.ID] = &Node{
			Story:    s,
			Children: []*Node{},
			Expanded: s.ID == currentID || s.Level <= 1,
		}
	}

	roots := make([]*Node, 0, 1)
	for _, s := range nodes {
		if s == nil {
			continue
		}
		n := wrapped[s.ID]
		if s.Level == 0 {
			roots = append(roots, n)
			continue
		}
		if s.ParentID == nil {
			continue
		}
		if parent, ok := wrapped[*s.ParentID]; ok && parent != n {
			parent.Children = append(parent.Children, n)
		}
	}

	for _, n := range wrapped {
		sortSiblings(n.Children)
	}
	sortSiblings(roots)
	return roots
}

// Flatten возвращает узлы в порядке (level, position).
func Flatten(nodes []*models.Story) []*models.Story {
	out := make([]*models.Story, 0, len(nodes))
	for _, s := range nodes {
		if s != nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func indexByID(nodes []*models.Story) map[uuid.UUID]*models.Story {
	byID := make(map[uuid.UUID]*models.Story, len(nodes))
	for _, s := range nodes {
		if s != nil {
			byID[s.ID] = s
		}
	}
	return byID
}

// position рекомендательный и может совпадать у соседей, поэтому вторым ключом идет created_at.
func sortSiblings(siblings []*Node) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i].Story, siblings[j].Story
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
