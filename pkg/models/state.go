package models

type State string

const (
	Init      State = "init"
	Idle      State = "idle"
	Planning  State = "planning"
	Running   State = "running" // executing a tool
	Streaming State = "streaming"
	Failed    State = "failed" // last turn ended on a failure path, session still usable
)
