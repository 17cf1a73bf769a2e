package bot

// Command is a caption keyword that selects a transform.
type Command string

// Recognised captions.
const (
	CommandSaltAndPepper Command = "Salt and pepper"
	CommandSegment       Command = "Segment"
	CommandContour       Command = "Contour"
	CommandBlur          Command = "Blur"
	CommandConcat        Command = "Concat"
	CommandRotate        Command = "Rotate"
)

// ParseCommand maps a caption to its command. Matching is exact and case
// sensitive; anything else is not a command.
func ParseCommand(caption string) (Command, bool) {
	switch c := Command(caption); c {
	case CommandSaltAndPepper, CommandSegment, CommandContour,
		CommandBlur, CommandConcat, CommandRotate:
		return c, true
	default:
		return "", false
	}
}

// Commands lists every recognised caption.
func Commands() []Command {
	return []Command{
		CommandSaltAndPepper,
		CommandSegment,
		CommandContour,
		CommandBlur,
		CommandConcat,
		CommandRotate,
	}
}
