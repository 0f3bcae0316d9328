package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
)

const (
	StateSex          = "sex"
	StateBirth        = "birth"
	StateHeight       = "height"
	StateWeight       = "weight"
	StateWorkouts     = "workouts"
	StateGoal         = "goal"
	StateTargetWeight = "target_weight"
	StatePregnant     = "pregnant"
	StateTrimester    = "trimester"
	StateConfirm      = "confirm"
)

const (
	btnMale     = "Male"
	btnFemale   = "Female"
	btnLose     = "Lose weight"
	btnMaintain = "Maintain weight"
	btnBuild    = "Build muscle"
	btnYes      = "Yes"
	btnNo       = "No"
	btnSkip     = "Skip"
	btnSave     = "Save my plan"
	btnRestart  = "Start over"
)

var goalButtons = map[string]models.Goal{
	btnLose:     models.GoalLoseWeight,
	btnMaintain: models.GoalMaintain,
	btnBuild:    models.GoalBuildMuscle,
}

var trimesterButtons = map[string]models.Trimester{
	"First":  models.TrimesterFirst,
	"Second": models.TrimesterSecond,
	"Third":  models.TrimesterThird,
}

var (
	sexKeyboard       = [][]string{{btnMale, btnFemale}}
	goalKeyboard      = [][]string{{btnLose, btnMaintain}, {btnBuild}}
	yesNoKeyboard     = [][]string{{btnYes, btnNo}}
	skipKeyboard      = [][]string{{btnSkip}}
	trimesterKeyboard = [][]string{{"First", "Second", "Third"}}
	confirmKeyboard   = [][]string{{btnSave, btnRestart}}
)

// prompt is the next question to send. A nil keyboard removes any reply keyboard.
type prompt struct {
	text     string
	keyboard [][]string
}

func newOnboarding(telegramID int64) *models.UserState {
	return &models.UserState{TelegramID: telegramID, CurrentState: StateSex}
}

func startPrompt() prompt {
	return prompt{
		text:     "👋 Hi! I'll work out your daily calories and macros. First, what is your sex?",
		keyboard: sexKeyboard,
	}
}

// advance applies one onboarding answer and moves the state forward. When
// the answer is rejected ok is false and the prompt asks again.
func advance(st *models.UserState, answer string, now time.Time) (next prompt, ok bool) {
	answer = strings.TrimSpace(answer)

	switch st.CurrentState {
	case StateSex:
		switch answer {
		case btnMale:
			st.Input.Sex = models.SexMale
		case btnFemale:
			st.Input.Sex = models.SexFemale
		default:
			return prompt{"Please pick one of the buttons below.", sexKeyboard}, false
		}
		st.CurrentState = StateBirth
		return prompt{text: "When were you born? Send month and year, e.g. 05/1996."}, true

	case StateBirth:
		month, year, err := parseBirth(answer, now)
		if err != nil {
			return prompt{text: "Please send your birth month and year like 05/1996."}, false
		}
		st.Input.BirthMonth, st.Input.BirthYear = month, year
		st.CurrentState = StateHeight
		return prompt{text: "How tall are you? Send centimeters (175) or inches (69 in)."}, true

	case StateHeight:
		v, imperial, err := parseMeasure(answer, []string{"inches", "inch", "in", "\""})
		if imperial {
			v = nutrition.InchesToCm(v)
		}
		if err != nil || v < 100 || v > 250 {
			return prompt{text: "Please send a height between 100 and 250 cm, e.g. 175."}, false
		}
		st.Input.HeightCm = v
		st.CurrentState = StateWeight
		return prompt{text: "What do you weigh? Send kilograms (70) or pounds (154 lb)."}, true

	case StateWeight:
		v, err := parseWeight(answer)
		if err != nil {
			return prompt{text: "Please send a weight between 30 and 300 kg, e.g. 70."}, false
		}
		st.Input.WeightKg = v
		st.CurrentState = StateWorkouts
		return prompt{text: "How many workouts do you do in a typical week? (0-14)"}, true

	case StateWorkouts:
		n, err := strconv.Atoi(answer)
		if err != nil || n < 0 || n > 14 {
			return prompt{text: "Please send a whole number of workouts per week between 0 and 14."}, false
		}
		st.Input.WorkoutsPerWeek = &n
		st.CurrentState = StateGoal
		return prompt{"What is your goal?", goalKeyboard}, true

	case StateGoal:
		goal, found := goalButtons[answer]
		if !found {
			return prompt{"Please pick a goal from the buttons below.", goalKeyboard}, false
		}
		st.Input.Goal = goal
		if goal == models.GoalMaintain {
			st.Input.TargetWeightKg = nil
			return afterGoal(st), true
		}
		st.CurrentState = StateTargetWeight
		return prompt{"Do you have a target weight? Send it, or tap Skip.", skipKeyboard}, true

	case StateTargetWeight:
		if answer != btnSkip {
			v, err := parseWeight(answer)
			if err != nil {
				return prompt{"Please send a target weight between 30 and 300 kg, or tap Skip.", skipKeyboard}, false
			}
			st.Input.TargetWeightKg = &v
		}
		return afterGoal(st), true

	case StatePregnant:
		switch answer {
		case btnYes:
			st.Input.IsPregnant = true
			st.CurrentState = StateTrimester
			return prompt{"Which trimester are you in?", trimesterKeyboard}, true
		case btnNo:
			st.Input.IsPregnant = false
			st.Input.Trimester = ""
			st.CurrentState = StateConfirm
			return prompt{}, true
		default:
			return prompt{"Please answer Yes or No.", yesNoKeyboard}, false
		}

	case StateTrimester:
		tri, found := trimesterButtons[answer]
		if !found {
			return prompt{"Please pick your trimester from the buttons below.", trimesterKeyboard}, false
		}
		st.Input.Trimester = tri
		st.CurrentState = StateConfirm
		return prompt{}, true
	}

	return prompt{text: "Something went wrong. Use /start to begin again."}, false
}

func afterGoal(st *models.UserState) prompt {
	if st.Input.Sex == models.SexFemale {
		st.CurrentState = StatePregnant
		return prompt{"Are you currently pregnant?", yesNoKeyboard}
	}
	st.Input.IsPregnant = false
	st.CurrentState = StateConfirm
	return prompt{}
}

func parseBirth(s string, now time.Time) (int, int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected month and year, got %q", s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", parts[0])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < now.Year()-120 || year > now.Year() {
		return 0, 0, fmt.Errorf("invalid year %q", parts[1])
	}
	if year == now.Year() && month > int(now.Month()) {
		return 0, 0, fmt.Errorf("birth date %02d/%d is in the future", month, year)
	}
	return month, year, nil
}

func parseWeight(s string) (float64, error) {
	v, imperial, err := parseMeasure(s, []string{"pounds", "lbs", "lb"})
	if err != nil {
		return 0, err
	}
	if imperial {
		v = nutrition.PoundsToKg(v)
	}
	if v < 30 || v > 300 {
		return 0, fmt.Errorf("weight %.1f kg out of range", v)
	}
	return v, nil
}

// parseMeasure reads a number with an optional unit suffix. imperial reports
// whether one of the given imperial suffixes was present.
func parseMeasure(s string, imperialSuffixes []string) (value float64, imperial bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range imperialSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			imperial = true
			break
		}
	}
	if !imperial {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "kg"), "cm")
	}
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	value, err = strconv.ParseFloat(s, 64)
	return value, imperial, err
}
