package greet

import "fmt"

func Hello(name string) string {
	if name == "" {
		return fmt.Sprintf("Hello, %s!", "stranger")
	}
	return fmt.Sprintf("Hello, %s!", name)
}

func Goodbye(name string) string {
	if name == "" {
		return "Goodbye, stranger!"
	}
	return "Goodbye, " + name + "!"
}
