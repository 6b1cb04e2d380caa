// Package dsl разбирает текстовый формат определения flow.
//
// Формат:
//
//	flow Имя:
//	description: "назначение flow"
//
//	# комментарий
//	extract -> transform
//	transform -> [load, report]
//
// Parse — чистая функция без побочных эффектов: никаких обращений
// к реестру задач, никакого ввода-вывода. Проверка того, что все
// упомянутые задачи зарегистрированы, выполняется исполнителями,
// поэтому один и тот же текст можно валидировать против разных реестров.
package dsl
