package config

type WorkerKeyStruct struct {
	PersistCodeQueue          string
	PersistProctorEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCodeQueue:          "persist_code_queue",
	PersistProctorEventsQueue: "persist_proctor_events_queue",
}
