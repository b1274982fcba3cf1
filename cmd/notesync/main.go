// Package main - CLI notesync: просмотр заметок и автосохранение локального файла в API.
package main

func main() {
	Execute()
}
