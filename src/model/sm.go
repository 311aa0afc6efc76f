package model

// session:{session_key}   // one record per active conversation (flow, state, payload)
//
// session_key is "{chat_id}:{user_id}" so two users sharing a group chat never
// see each other's dialogue.
