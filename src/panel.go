package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eiannone/keyboard"

	"liftsim/src/elevator"
	"liftsim/src/logger"
	"liftsim/src/types"
)

// panel reads single keystrokes as an operator console for the mock
// backend: type a floor number, then u, d or c to submit an up call, a
// down call or a cab target at that floor. w withdraws the last accepted
// request, f prints the projected stops, p the car state, q quits.
func panel(ctx context.Context, stop func(), eng *elevator.Elevator) {
	fmt.Println("panel: <floor>u | <floor>d | <floor>c submit, w withdraw last, f forecast, p state, q quit")
	digits := ""
	lastID := ""
	for ctx.Err() == nil {
		char, key, err := keyboard.GetSingleKey()
		if err != nil {
			logger.GetLogger().Warn().Err(err).Msg("keyboard unavailable, panel disabled")
			return
		}
		switch {
		case key == keyboard.KeyCtrlC || char == 'q':
			stop()
			return
		case char >= '0' && char <= '9':
			digits += string(char)
		case char == 'u' || char == 'd' || char == 'c':
			floor, convErr := strconv.Atoi(digits)
			digits = ""
			if convErr != nil {
				fmt.Println("panel: type the floor number first")
				continue
			}
			if id, err := submitFromPanel(eng, char, floor); err != nil {
				fmt.Println("panel:", err)
			} else {
				lastID = id
				fmt.Println("panel: accepted", id)
			}
		case char == 'w':
			if lastID == "" {
				fmt.Println("panel: nothing to withdraw")
			} else if eng.Withdraw(lastID) {
				fmt.Println("panel: withdrew", lastID)
			} else {
				fmt.Println("panel:", lastID, "already served")
			}
			lastID = ""
		case char == 'f':
			fmt.Println("panel: projected stops", eng.ForecastStops())
		case char == 'p':
			st := eng.State()
			fmt.Printf("panel: floor %d, %s, %s, %d pending\n",
				st.Floor, st.Direction, st.Behaviour, st.Pending)
		}
	}
}

func submitFromPanel(eng *elevator.Elevator, kind rune, floor int) (string, error) {
	switch kind {
	case 'd':
		return eng.SubmitHallCall(floor, types.DirDown)
	case 'c':
		return eng.SubmitCabCall(floor)
	default:
		return eng.SubmitHallCall(floor, types.DirUp)
	}
}
