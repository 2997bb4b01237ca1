package main

import "github.com/eleven-am/voicestream/internal/bootstrap"

func main() {
	bootstrap.Run()
}
