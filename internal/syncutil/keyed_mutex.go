package syncutil

import (
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
)

const shardCount = 256

// KeyedMutex - пул мьютексов фиксированного размера, выбираемых по ключу.
// Память не растёт с числом ключей; ключи, попавшие в один шард, блокируют друг друга.
type KeyedMutex struct {
	shards [shardCount]sync.Mutex
}

// Lock захватывает мьютекс ключа и возвращает функцию освобождения.
func (m *KeyedMutex) Lock(key string) func() {
	mu := &m.shards[shardIndex(key)]
	mu.Lock()
	return mu.Unlock
}

// LockAll захватывает мьютексы всех ключей в порядке возрастания номера шарда.
// Единый порядок исключает взаимную блокировку двух операций над одними ключами.
// Повторный вызов LockAll с теми же ключами до unlock заблокирует горутину.
func (m *KeyedMutex) LockAll(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for _, key := range keys {
		i := shardIndex(key)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		m.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			m.shards[idx[j]].Unlock()
		}
	}
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}

func AccountKey(id int64) string {
	return "account:" + strconv.FormatInt(id, 10)
}

func OrderKey(id int64) string {
	return "order:" + strconv.FormatInt(id, 10)
}

func RequestKey(id int64) string {
	return "request:" + strconv.FormatInt(id, 10)
}
