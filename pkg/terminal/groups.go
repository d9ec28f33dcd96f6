package terminal

type commandGroup uint8

const (
	otherCmds commandGroup = iota
	dataCmds
	threadCmds
	maintCmds
)

type commandGroupDescription struct {
	description string
	group       commandGroup
}

var commandGroupDescriptions = []commandGroupDescription{
	{"Viewing and changing registers", dataCmds},
	{"Listing and switching between threads", threadCmds},
	{"Maintenance commands", maintCmds},
	{"Other commands", otherCmds},
}
