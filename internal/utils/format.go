package utils

// DateTimeSec is the timestamp layout used in log output.
const DateTimeSec = "2006-01-02 15:04:05"
