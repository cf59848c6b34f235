package flowqueue

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

type task struct {
	id     string
	method string
	path   string
	params any
	handle *handle
}

// queue 单个 key 的 FIFO 任务队列
type queue struct {
	key  string
	cfg  Config
	pool *ants.Pool

	mu    sync.Mutex
	tasks []*task
}

func (q *queue) push(t *task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

// pushFront 把未能发送的任务按原顺序放回队首
func (q *queue) pushFront(ts []*task) {
	q.mu.Lock()
	q.tasks = append(append(make([]*task, 0, len(ts)+len(q.tasks)), ts...), q.tasks...)
	q.mu.Unlock()
}

// take 按入队顺序取出至多 limit 个任务，limit<=0 取出全部
func (q *queue) take(limit int) []*task {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tasks)
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}
	out := make([]*task, n)
	copy(out, q.tasks[:n])
	q.tasks = q.tasks[n:]
	return out
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
