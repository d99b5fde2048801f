package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// SnapshotVersion — текущая версия формата сохранённой корзины.
const SnapshotVersion = 1

// ErrUnsupportedSnapshot возвращается для снимков неизвестной формы или версии.
var ErrUnsupportedSnapshot = errors.New("unsupported cart snapshot")

// Snapshot — сохраняемое представление корзины.
type Snapshot struct {
	Version int               `json:"version"`
	Items   []domain.LineItem `json:"items"`
}

// NewSnapshot упаковывает строки в снимок текущей версии.
func NewSnapshot(items []domain.LineItem) Snapshot {
	if items == nil {
		items = []domain.LineItem{}
	}
	return Snapshot{Version: SnapshotVersion, Items: items}
}

// DecodeSnapshot разбирает сохранённую корзину. Голый JSON-массив принимается
// как снимок версии 0. Результат нормализуется.
func DecodeSnapshot(raw []byte) ([]domain.LineItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedSnapshot)
	}

	switch trimmed[0] {
	case '[':
		var items []domain.LineItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode legacy cart snapshot: %w", err)
		}
		return Normalize(items), nil
	case '{':
		var snap Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("decode cart snapshot: %w", err)
		}
		if snap.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSnapshot, snap.Version)
		}
		return Normalize(snap.Items), nil
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrUnsupportedSnapshot)
	}
}
