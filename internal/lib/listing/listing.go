// Package listing реализует конвейер списочных экранов консоли:
// поиск → вкладка → сортировка → пагинация. Конвейер работает над срезом
// в памяти и пересчитывается при каждом изменении состояния; правила
// повторяют поведение списков панели (регистронезависимый поиск по набору
// полей, переключение направления сортировки, страницы по 10 записей).
package listing

import (
	"sort"
	"strings"
)

// Direction задаёт направление сортировки.
type Direction string

const (
	// Asc — по возрастанию.
	Asc Direction = "asc"
	// Desc — по убыванию.
	Desc Direction = "desc"
)

// DefaultPerPage — размер страницы списочных экранов панели.
const DefaultPerPage = 10

// TabAll — вкладка, пропускающая все записи.
const TabAll = "all"

// State — изменяемое состояние списочного экрана. Любая мутация поиска,
// вкладки или сортировки сбрасывает текущую страницу на первую, чтобы
// пользователь не остался на несуществующей странице устаревших результатов.
type State struct {
	Search    string
	SortField string
	Direction Direction
	Tab       string
	Page      int
	PerPage   int
}

// NewState возвращает состояние по умолчанию: сортировка по field по
// возрастанию, вкладка "all", первая страница, 10 записей на страницу.
func NewState(field string) State {
	return State{
		SortField: field,
		Direction: Asc,
		Tab:       TabAll,
		Page:      1,
		PerPage:   DefaultPerPage,
	}
}

// SetSearch изменяет строку поиска и сбрасывает страницу.
func (s *State) SetSearch(query string) {
	s.Search = query
	s.Page = 1
}

// Sort выбирает поле сортировки. Повторный выбор того же поля переключает
// направление, выбор нового поля сбрасывает направление на возрастание.
func (s *State) Sort(field string) {
	if s.SortField == field {
		if s.Direction == Asc {
			s.Direction = Desc
		} else {
			s.Direction = Asc
		}
	} else {
		s.SortField = field
		s.Direction = Asc
	}
	s.Page = 1
}

// SetTab переключает активную вкладку и сбрасывает страницу.
func (s *State) SetTab(tab string) {
	s.Tab = tab
	s.Page = 1
}

// SetPage переходит на страницу page. Выход за границы не является ошибкой:
// пагинация отработает пустым срезом.
func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// Fields описывает семантику полей конкретной сущности.
type Fields[T any] struct {
	// Search возвращает строковые представления полей, по которым ищет
	// свободный текст. Запись проходит, если хотя бы одно поле содержит
	// искомую подстроку без учёта регистра.
	Search func(item T) []string
	// Tab сообщает, проходит ли запись критерий вкладки.
	// Для вкладки "all" не вызывается.
	Tab func(item T, tab string) bool
	// Sort возвращает ключ сортировки записи по выбранному полю.
	Sort func(item T, field string) Key
}

// Page — производное представление: отфильтрованная страница плюс метаданные.
type Page[T any] struct {
	Items      []T // Записи текущей страницы
	TotalItems int // Количество записей после фильтрации
	TotalPages int
	Start      int // Индекс первой записи страницы в отфильтрованном списке
}

// Apply прогоняет записи через конвейер и возвращает страницу.
func Apply[T any](items []T, st State, fields Fields[T]) Page[T] {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if !matchesSearch(fields.Search(item), st.Search) {
			continue
		}
		if st.Tab != "" && st.Tab != TabAll && !fields.Tab(item, st.Tab) {
			continue
		}
		filtered = append(filtered, item)
	}

	// Стабильность сортировки не гарантируется: для списочных экранов
	// панели порядок равных записей не важен.
	sort.Slice(filtered, func(i, j int) bool {
		a := fields.Sort(filtered[i], st.SortField)
		b := fields.Sort(filtered[j], st.SortField)
		if st.Direction == Desc {
			return b.Less(a)
		}
		return a.Less(b)
	})

	perPage := st.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := st.Page
	if page < 1 {
		page = 1
	}

	totalPages := (len(filtered) + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Items:      filtered[start:end],
		TotalItems: len(filtered),
		TotalPages: totalPages,
		Start:      start,
	}
}

func matchesSearch(values []string, query string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(query)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
