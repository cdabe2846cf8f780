package utils

// LoggerInitializationFailedMessageFormat reports a logger construction failure.
const LoggerInitializationFailedMessageFormat = "initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal command errors.
const ApplicationExecutionFailedMessage = "aiclip failed"
