package main

import (
	"fmt"
	"os"

	"github.com/temirov/aiclip/internal/cli"
	"github.com/temirov/aiclip/internal/utils"
)

const debugEnvironmentVariable = "AICLIP_DEBUG"

// main is the entry point for the aiclip command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(os.Getenv(debugEnvironmentVariable) != "")
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
