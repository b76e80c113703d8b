package dictation

// Apply 对状态应用一个事件，返回新状态与副作用
// 不适用于当前阶段的事件返回原状态且不产生副作用
func Apply(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Start:
		if s.Started {
			return s, nil
		}
		return begin(s)
	case Restart:
		return begin(s)
	case PlaybackPosition:
		return onPosition(s, e.Seconds)
	case InputChanged:
		return onInput(s, e.Value)
	case Replay:
		if !s.Started || s.Phase == ExerciseComplete {
			return s, nil
		}
		return enterListening(s, s.Index)
	case Previous:
		if !s.Started || s.Phase == ExerciseComplete || s.Index == 0 {
			return s, nil
		}
		return enterListening(s, s.Index-1)
	case TimerFired:
		return onTimer(s, e)
	}
	return s, nil
}

// begin 从第一句开始，错误数清零
func begin(s State) (State, []Effect) {
	s.Started = true
	s.Index = 0
	s.Errors = 0
	effects := []Effect{ShowErrors{Count: 0}}

	if len(s.Segments) == 0 {
		s, more := finish(s)
		return s, append(effects, more...)
	}

	s, more := enterListening(s, 0)
	return s, append(effects, more...)
}

// enterListening 切换到 index 句并开始播放，作废所有未到期的计时器
func enterListening(s State, index int) (State, []Effect) {
	s.Generation++
	s.Index = index
	s.Typed = ""
	s.Progress = 0
	s.Phase = Listening

	seg := s.Segments[index]
	return s, []Effect{
		CancelTimer{Timer: TimerAdvance},
		DisableInput{},
		SetInput{Value: ""},
		ClearSuccess{},
		ShowProgress{Percent: 0},
		ShowSegment{Index: index, Total: len(s.Segments)},
		SetPreviousEnabled{Enabled: index > 0},
		SeekTo{Seconds: seg.Start},
		Play{},
		StartPolling{Interval: PollInterval},
	}
}

// finish 进入终止状态
func finish(s State) (State, []Effect) {
	s.Generation++
	s.Phase = ExerciseComplete
	s.Typed = ""
	return s, []Effect{
		CancelTimer{Timer: TimerAdvance},
		StopPolling{},
		Pause{},
		DisableInput{},
		ClearSuccess{},
		ShowSegment{Index: s.Index, Total: len(s.Segments)},
		SetPreviousEnabled{Enabled: false},
		ShowExerciseComplete{Errors: s.Errors, Total: len(s.Segments)},
	}
}

func onPosition(s State, seconds float64) (State, []Effect) {
	if !s.Started || s.Phase != Listening {
		return s, nil
	}
	if seconds < s.Segments[s.Index].End {
		return s, nil
	}

	s.Phase = AwaitingInput
	s.Typed = ""
	return s, []Effect{
		Pause{},
		StopPolling{},
		EnableInput{},
	}
}

func onInput(s State, value string) (State, []Effect) {
	if !s.Started || s.Phase != AwaitingInput {
		return s, nil
	}

	res := CheckPrefix(s.Segments[s.Index].Text, value)
	if !res.Accepted {
		// 恢复到最后一次被接受的输入
		s.Errors++
		return s, []Effect{
			SetInput{Value: s.Typed},
			ShowErrors{Count: s.Errors},
			FlashError{},
			ScheduleTimer{Timer: TimerErrorFlash, Delay: ErrorFlashDelay, Generation: s.Generation},
		}
	}

	s.Typed = value
	s.Progress = res.Progress
	effects := []Effect{ShowProgress{Percent: s.Progress}}
	if !res.Complete {
		return s, effects
	}

	s.Phase = SegmentComplete
	return s, append(effects,
		DisableInput{},
		ShowSuccess{},
		ScheduleTimer{Timer: TimerAdvance, Delay: AdvanceDelay, Generation: s.Generation},
	)
}

func onTimer(s State, e TimerFired) (State, []Effect) {
	switch e.Timer {
	case TimerErrorFlash:
		// 清除闪烁在任何阶段都无害，不校验代数
		return s, []Effect{ClearErrorFlash{}}
	case TimerAdvance:
		if e.Generation != s.Generation || s.Phase != SegmentComplete {
			return s, nil
		}
		if s.Index+1 < len(s.Segments) {
			return enterListening(s, s.Index+1)
		}
		return finish(s)
	}
	return s, nil
}
