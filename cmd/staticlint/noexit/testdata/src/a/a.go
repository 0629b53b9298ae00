package main

import (
	"log"
	"os"
	"syscall"
)

func main() {
	os.Exit(1)               // want "вызов os.Exit в main запрещён, верните ошибку из run"
	syscall.Exit(2)          // want "вызов syscall.Exit в main запрещён, верните ошибку из run"
	log.Fatal("boom")        // want "вызов log.Fatal в main запрещён, верните ошибку из run"
	log.Fatalf("boom %d", 1) // want "вызов log.Fatalf в main запрещён, верните ошибку из run"
	log.Println("still fine")

	defer func() {
		os.Exit(3) // want "вызов os.Exit в main запрещён, верните ошибку из run"
	}()

	go func() {
		log.Fatalln("async") // want "вызов log.Fatalln в main запрещён, верните ошибку из run"
	}()
}

func helper() {
	os.Exit(4)
}
