package taskledger

func Banner() string {
	return "" +
		"                                                                \n" +
		"   _____         _    _          _                              \n" +
		"  |_   _|_ _ ___| | _| |    ___ | | __ _  ___ _ __              \n" +
		"    | |/ _` / __| |/ / |   / _ \\| |/ _` |/ _ \\ '__|             \n" +
		"    | | (_| \\__ \\   <| |__|  __/| | (_| |  __/ |                \n" +
		"    |_|\\__,_|___/_|\\_\\_____\\___||_|\\__, |\\___|_|                \n" +
		"                                   |___/                        \n" +
		"          WORK IN, SATS OUT. EVERY REWARD PAID EXACTLY ONCE.    \n\n"
}
