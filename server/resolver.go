package server

// Threshold 读取当前阈值 peak_min；实现方需并发安全（由设置方持有与修改）
type Threshold interface {
	PeakMin() float32
}

// ThresholdFunc 将普通函数适配为 Threshold
type ThresholdFunc func() float32

func (f ThresholdFunc) PeakMin() float32 { return f() }

// FixedThreshold 固定阈值（测试、无设置对象时使用）
type FixedThreshold float32

func (t FixedThreshold) PeakMin() float32 { return float32(t) }

// Resolver 每个 Tick 取空事件通道，按阈值策略产出最多一个 GameAction
type Resolver struct {
	rx        EventReceiver
	threshold Threshold
	metrics   *Metrics
}

// NewResolver metrics 可为 nil
func NewResolver(rx EventReceiver, threshold Threshold, metrics *Metrics) *Resolver {
	if threshold == nil {
		threshold = FixedThreshold(0)
	}
	return &Resolver{rx: rx, threshold: threshold, metrics: metrics}
}

// ProcessTick 每个 Tick 最多调用一次；不阻塞
// 按到达顺序处理，第一个 value >= peak_min 的强度事件胜出，本批次其余事件丢弃
func (r *Resolver) ProcessTick() (GameAction, bool) {
	if r.metrics != nil {
		r.metrics.IncTick()
	}
	batch := r.rx.Drain()
	for i, ev := range batch {
		switch ev.Kind {
		case EventConnectionEstablished:
			Log.Infow("controller connected")
		case EventConnectionLost:
			Log.Infow("controller connection lost")
		case EventIntensityRight, EventIntensityLeft, EventIntensityShoot:
			// 阈值逐事件读取，运行中修改在下一批即生效
			peakMin := r.threshold.PeakMin()
			if float64(ev.Value) < float64(peakMin) {
				if r.metrics != nil {
					r.metrics.IncBelowThreshold()
				}
				continue
			}
			action, _ := actionFor(ev.Kind)
			Log.Debugw("control action resolved",
				"event", ev.String(), "action", action.String(),
				"peak_min", peakMin, "discarded", len(batch)-i-1)
			if r.metrics != nil {
				r.metrics.IncAction(action)
			}
			return action, true
		default:
			Log.Warnw("unknown control event", "kind", int(ev.Kind))
		}
	}
	return ActionNone, false
}
