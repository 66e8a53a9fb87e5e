package server

import (
	"math/rand"
	"time"
)

// countdown 一次同步揭示的编排状态：3 → 2 → 1 → 变更+START → 清除
// 每房间同一时刻至多一个；新请求替换进行中的倒计时
type countdown struct {
	step  int
	apply func(*Room)
	timer *time.Timer
}

// startCountdown 立即广播 "3" 并按步进间隔推进后续节拍
// 变更只在 START 节拍执行，之前的节拍不触碰房间状态
func (r *Room) startCountdown(apply func(*Room)) {
	if r.cd != nil {
		if r.cd.timer != nil {
			r.cd.timer.Stop()
		}
		Log.Infof("room %s: countdown replaced mid-flight", r.Code)
	}
	cd := &countdown{apply: apply}
	r.cd = cd
	r.metrics.IncCountdowns()
	r.broadcast(evtCountdown, "3")
	cd.schedule(r)
}

// schedule 定时器到点后把节拍送回房间协程，保持单写者
func (cd *countdown) schedule(r *Room) {
	cd.timer = time.AfterFunc(r.stepInterval, func() {
		select {
		case r.stepCh <- cd:
		case <-r.done:
		}
	})
}

// advanceCountdown 推进一个节拍；被替换的旧倒计时送来的信号直接丢弃
func (r *Room) advanceCountdown(cd *countdown) {
	if cd != r.cd {
		return
	}
	cd.step++
	switch cd.step {
	case 1:
		r.broadcast(evtCountdown, "2")
		cd.schedule(r)
	case 2:
		r.broadcast(evtCountdown, "1")
		cd.schedule(r)
	case 3:
		cd.apply(r)
		r.broadcastState()
		r.broadcast(evtCountdown, "START")
		cd.schedule(r)
	default:
		// 最后一拍清除客户端的倒计时覆盖层
		r.broadcast(evtCountdown, nil)
		r.cd = nil
	}
}

// assignLimitCuts 洗乱 1..8 依次发给非 spectator，至多八人拿到编号
func (r *Room) assignLimitCuts() {
	eligible := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Role != RoleSpectator {
			eligible = append(eligible, p)
		}
	}
	nums := []int{1, 2, 3, 4, 5, 6, 7, 8}
	rand.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
	for i, p := range eligible {
		if i >= len(nums) {
			break
		}
		n := nums[i]
		p.LimitCut = &n
	}
}
