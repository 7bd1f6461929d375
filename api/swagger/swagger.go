package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Solver API",
        "description": "Weekly school timetable generation, scoring, ranking and evolution",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/solve": {
            "post": {
                "summary": "Generate ranked candidate timetables for a school",
                "responses": {
                    "200": {
                        "description": "Solve result with ranked candidates"
                    }
                }
            }
        },
        "/evaluate": {
            "post": {
                "summary": "Score a single timetable against the penalty weights",
                "responses": {
                    "200": {
                        "description": "Evaluation result"
                    }
                }
            }
        },
        "/rank": {
            "post": {
                "summary": "Score and order a batch of timetables",
                "responses": {
                    "200": {
                        "description": "Ranked timetables"
                    }
                }
            }
        },
        "/evolve": {
            "post": {
                "summary": "Queue a genetic-algorithm refinement run over a population",
                "responses": {
                    "202": {
                        "description": "Evolve run accepted and queued"
                    }
                }
            }
        },
        "/cache/sessions/{id}/best": {
            "get": {
                "summary": "Fetch the best cached timetable for a session",
                "responses": {
                    "200": {
                        "description": "Best timetable"
                    },
                    "404": {
                        "description": "No cached timetable for session"
                    }
                }
            }
        },
        "/cache/sessions/{id}/generations/{gen}": {
            "get": {
                "summary": "Fetch the cached population of a generation",
                "responses": {
                    "200": {
                        "description": "Population"
                    }
                }
            }
        },
        "/cache/sessions/{id}/complete": {
            "post": {
                "summary": "Mark a session complete and evict non-best entries",
                "responses": {
                    "200": {
                        "description": "Session completed"
                    }
                }
            }
        },
        "/cache/stats": {
            "get": {
                "summary": "Aggregate cache statistics",
                "responses": {
                    "200": {
                        "description": "Cache stats"
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
