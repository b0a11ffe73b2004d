package server

import "sync"

// eventQueue 无界 FIFO：多个连接协程写入，Tick 线程一次性取空
// 写入方永不阻塞（无背压），读取方非阻塞
type eventQueue struct {
	mu    sync.Mutex
	items []ControlEvent
}

func (q *eventQueue) push(ev ControlEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
}

// drain 取走当前所有事件（按入队顺序），队列置空
func (q *eventQueue) drain() []ControlEvent {
	q.mu.Lock()
	batch := q.items
	q.items = nil
	q.mu.Unlock()
	return batch
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// EventSender 事件通道的生产端，可被任意多个协程并发使用
type EventSender struct {
	q *eventQueue
}

// Send 入队一个事件，不阻塞
func (s EventSender) Send(ev ControlEvent) {
	s.q.push(ev)
}

// EventReceiver 事件通道的消费端，仅供游戏循环（单消费者）使用
type EventReceiver struct {
	q *eventQueue
}

// Drain 非阻塞取空通道，最旧的事件在前；没有事件时返回 nil
func (r EventReceiver) Drain() []ControlEvent {
	return r.q.drain()
}

// Pending 当前排队事件数（监控用）
func (r EventReceiver) Pending() int {
	return r.q.len()
}

// NewEventChannel 创建一条新的事件通道，返回生产端与消费端
func NewEventChannel() (EventSender, EventReceiver) {
	q := &eventQueue{}
	return EventSender{q: q}, EventReceiver{q: q}
}
