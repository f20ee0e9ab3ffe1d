package bot

import (
	"errors"
	"strconv"
	"strings"
)

// Действия inline-кнопок. Данные кнопки: действие и числовые id через "_".
const (
	ActionRespond      = "respond"
	ActionSelect       = "select"
	ActionConfirm      = "confirm"
	ActionBuy          = "buy"
	ActionApprove      = "approve"
	ActionReject       = "reject"
	ActionAdminConfirm = "adminconfirm"
	ActionAdminReject  = "adminreject"
)

var callbackArity = map[string]int{
	ActionRespond:      1,
	ActionSelect:       2,
	ActionConfirm:      1,
	ActionBuy:          1,
	ActionApprove:      1,
	ActionReject:       1,
	ActionAdminConfirm: 1,
	ActionAdminReject:  1,
}

var ErrBadCallback = errors.New("bot: malformed callback data")

// Callback - разобранные данные нажатой кнопки.
type Callback struct {
	Action string
	IDs    []int64
}

// ParseCallback разбирает строку вида select_12_345. Неизвестное действие,
// неверное число аргументов или неположительный id дают ErrBadCallback.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(strings.TrimSpace(data), "_")
	arity, ok := callbackArity[parts[0]]
	if !ok || len(parts)-1 != arity {
		return Callback{}, ErrBadCallback
	}

	ids := make([]int64, 0, arity)
	for _, p := range parts[1:] {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, ErrBadCallback
		}
		ids = append(ids, id)
	}
	return Callback{Action: parts[0], IDs: ids}, nil
}

func callbackData(action string, ids ...int64) string {
	var sb strings.Builder
	sb.WriteString(action)
	for _, id := range ids {
		sb.WriteByte('_')
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}
