package api

import (
	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/pipeline"
	"github.com/citybeat/citybeat/app/tasks"
)

type Handler struct {
	eventRepo   database.EventRepository
	pipeline    *pipeline.Pipeline
	scheduler   tasks.TaskSchedulerInterface
	defaultCity string
}
