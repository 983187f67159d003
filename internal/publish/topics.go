package publish

import "fmt"

// TopicPrediction is where stabilized signs for a device are published.
func TopicPrediction(prefix, deviceID string) string {
	return fmt.Sprintf("%s/device/%s/prediction", prefix, deviceID)
}

// TopicTranscript is where final speech transcripts for a device are published.
func TopicTranscript(prefix, deviceID string) string {
	return fmt.Sprintf("%s/device/%s/transcript", prefix, deviceID)
}

// TopicOnline carries the device's retained online flag.
func TopicOnline(prefix, deviceID string) string {
	return fmt.Sprintf("%s/device/%s/online", prefix, deviceID)
}
