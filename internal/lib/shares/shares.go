// Package shares реализует набор долей владения одним апартаментом
// (или набор долей одного пользователя) и операции перераспределения
// процентов. Набор упорядочен: при равном делении остаток достаётся
// первым участникам по порядку списка, поэтому итог детерминирован.
package shares

import "errors"

var (
	// ErrAlreadyParticipant — участник уже присутствует в наборе.
	ErrAlreadyParticipant = errors.New("participant already holds a share")
	// ErrOverAllocated — суммарная доля превысила бы 100 процентов.
	ErrOverAllocated = errors.New("total share percentage cannot exceed 100")
	// ErrOutOfRange — процент вне диапазона 0–100.
	ErrOutOfRange = errors.New("share percentage must be between 0 and 100")
	// ErrNotFound — участника нет в наборе.
	ErrNotFound = errors.New("participant not found")
)

// Entry — доля одного участника.
type Entry struct {
	ParticipantID int
	Percentage    int
}

// Set — упорядоченный набор долей.
type Set struct {
	entries []Entry
}

// NewSet создаёт набор из существующих долей, сохраняя порядок.
func NewSet(entries []Entry) *Set {
	s := &Set{entries: make([]Entry, len(entries))}
	copy(s.entries, entries)
	return s
}

// Entries возвращает копию текущих долей.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len возвращает число участников.
func (s *Set) Len() int {
	return len(s.entries)
}

// Contains сообщает, есть ли участник в наборе.
func (s *Set) Contains(participantID int) bool {
	return s.index(participantID) >= 0
}

// Add добавляет участника и перераспределяет проценты поровну:
// база — целочисленное деление 100 на число участников, остаток по единице
// достаётся первым участникам списка. Сразу после добавления сумма всегда
// равна ровно 100. Если участник уже есть, набор не меняется.
func (s *Set) Add(participantID int) error {
	if s.Contains(participantID) {
		return ErrAlreadyParticipant
	}
	s.entries = append(s.entries, Entry{ParticipantID: participantID})
	s.rebalance()
	return nil
}

// Remove удаляет участника. При rebalance=true оставшиеся доли
// перераспределяются поровну (поведение экрана создания); при false
// проценты остальных не трогаются (поведение экрана редактирования —
// администратор корректирует их вручную).
func (s *Set) Remove(participantID int, rebalance bool) error {
	i := s.index(participantID)
	if i < 0 {
		return ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	if rebalance && len(s.entries) > 0 {
		s.rebalance()
	}
	return nil
}

// SetPercentage вручную задаёт процент участника. Значение принимается,
// только если сумма долей остальных участников плюс новое значение не
// превышает 100; иначе набор остаётся нетронутым. Недобор до 100 допустим —
// его подсвечивает Balanced, но операция не блокируется.
func (s *Set) SetPercentage(participantID, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return ErrOutOfRange
	}
	i := s.index(participantID)
	if i < 0 {
		return ErrNotFound
	}
	totalOthers := 0
	for j, e := range s.entries {
		if j != i {
			totalOthers += e.Percentage
		}
	}
	if totalOthers+percentage > 100 {
		return ErrOverAllocated
	}
	s.entries[i].Percentage = percentage
	return nil
}

// Total возвращает сумму текущих процентов.
func (s *Set) Total() int {
	total := 0
	for _, e := range s.entries {
		total += e.Percentage
	}
	return total
}

// Balanced сообщает, равна ли сумма долей ровно 100.
func (s *Set) Balanced() bool {
	return s.Total() == 100
}

func (s *Set) index(participantID int) int {
	for i, e := range s.entries {
		if e.ParticipantID == participantID {
			return i
		}
	}
	return -1
}

func (s *Set) rebalance() {
	n := len(s.entries)
	if n == 0 {
		return
	}
	base := 100 / n
	remainder := 100 - base*n
	for i := range s.entries {
		s.entries[i].Percentage = base
		if i < remainder {
			s.entries[i].Percentage++
		}
	}
}
